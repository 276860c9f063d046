package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aarondl/null/v8"

	"todo-api/internal/entities"
	apperrors "todo-api/pkg/errors"
	"todo-api/pkg/types"
)

// MemoryStore keeps users, their access rows and todos in process memory.
// All maps are guarded by mu.
type MemoryStore struct {
	mu          sync.RWMutex
	now         func() time.Time
	users       map[uint64]*entities.User
	roles       map[uint64]*entities.UserRole
	permissions map[uint64][]*entities.UserPermission
	todos       map[uint64]*entities.Todo

	nextUserID       uint64
	nextRoleID       uint64
	nextPermissionID uint64
	nextTodoID       uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:         time.Now,
		users:       make(map[uint64]*entities.User),
		roles:       make(map[uint64]*entities.UserRole),
		permissions: make(map[uint64][]*entities.UserPermission),
		todos:       make(map[uint64]*entities.Todo),
	}
}

type MemoryUserRepository struct {
	store *MemoryStore
}

func NewMemoryUserRepository(store *MemoryStore) UserRepositoryInterface {
	return &MemoryUserRepository{store: store}
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id uint64) (*entities.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) emailTakenLocked(email string, exceptID uint64) bool {
	for id, u := range s.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (s *MemoryStore) insertUserLocked(user *entities.User) *entities.User {
	s.nextUserID++
	u := &entities.User{
		ID:        s.nextUserID,
		Name:      user.Name,
		Email:     user.Email,
		Password:  user.Password,
		CreatedAt: s.now(),
	}
	s.users[u.ID] = u
	cp := *u
	return &cp
}

func (r *MemoryUserRepository) Create(_ context.Context, user *entities.User) (*entities.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTakenLocked(user.Email, 0) {
		return nil, apperrors.ErrEmailTaken
	}
	return s.insertUserLocked(user), nil
}

func (r *MemoryUserRepository) CreateWithAccess(_ context.Context, user *entities.User, access entities.UserAccess) (*entities.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTakenLocked(user.Email, 0) {
		return nil, apperrors.ErrEmailTaken
	}
	created := s.insertUserLocked(user)
	s.setRoleLocked(created.ID, access.Role)
	for _, p := range access.Permissions {
		s.grantLocked(&entities.UserPermission{UserID: created.ID, PermissionType: p})
	}
	return created, nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *entities.User) (*entities.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.ID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if s.emailTakenLocked(user.Email, user.ID) {
		return nil, apperrors.ErrEmailTaken
	}
	existing.Name = user.Name
	existing.Email = user.Email
	existing.Password = user.Password
	existing.UpdatedAt = null.TimeFrom(s.now())
	cp := *existing
	return &cp, nil
}

// Delete removes the user with its role, permissions and todos.
func (r *MemoryUserRepository) Delete(_ context.Context, id uint64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(s.users, id)
	delete(s.roles, id)
	delete(s.permissions, id)
	for todoID, t := range s.todos {
		if t.UserID == id {
			delete(s.todos, todoID)
		}
	}
	return nil
}

func (r *MemoryUserRepository) ListPaged(_ context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	matched := make([]entities.User, 0, len(s.users))
	for _, u := range s.users {
		if search == "" || strings.Contains(strings.ToLower(u.Name), search) {
			matched = append(matched, *u)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := uint64(len(matched))
	if !filter.WithPagination {
		return matched, total, nil
	}
	start := min(max(filter.Offset, 0), len(matched))
	end := len(matched)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(matched))
	}
	return matched[start:end], total, nil
}

func (s *MemoryStore) setRoleLocked(userID uint64, role entities.Role) *entities.UserRole {
	if existing, ok := s.roles[userID]; ok {
		existing.UserRole = role
		return existing
	}
	s.nextRoleID++
	ur := &entities.UserRole{ID: s.nextRoleID, UserID: userID, UserRole: role, CreatedAt: s.now()}
	s.roles[userID] = ur
	return ur
}

func (s *MemoryStore) grantLocked(p *entities.UserPermission) *entities.UserPermission {
	for _, existing := range s.permissions[p.UserID] {
		if existing.PermissionType == p.PermissionType {
			return existing
		}
	}
	s.nextPermissionID++
	up := &entities.UserPermission{
		ID:             s.nextPermissionID,
		UserID:         p.UserID,
		PermissionType: p.PermissionType,
		CreatedBy:      p.CreatedBy,
		CreatedAt:      s.now(),
	}
	s.permissions[p.UserID] = append(s.permissions[p.UserID], up)
	return up
}

func (r *MemoryUserRepository) CreateRole(_ context.Context, userID uint64, role entities.Role) (*entities.UserRole, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *s.setRoleLocked(userID, role)
	return &cp, nil
}

func (r *MemoryUserRepository) CreatePermission(_ context.Context, permission *entities.UserPermission) (*entities.UserPermission, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[permission.UserID]; !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *s.grantLocked(permission)
	return &cp, nil
}

func (r *MemoryUserRepository) GetAccess(_ context.Context, userID uint64) (entities.UserAccess, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	access := entities.UserAccess{Role: entities.RoleUser, Permissions: []string{}}
	if ur, ok := s.roles[userID]; ok {
		access.Role = ur.UserRole
	}
	for _, p := range s.permissions[userID] {
		access.Permissions = append(access.Permissions, p.PermissionType)
	}
	sort.Strings(access.Permissions)
	return access, nil
}

type MemoryTodoRepository struct {
	store *MemoryStore
}

func NewMemoryTodoRepository(store *MemoryStore) TodoRepositoryInterface {
	return &MemoryTodoRepository{store: store}
}

func (r *MemoryTodoRepository) ListByOwner(_ context.Context, userID uint64, search string) ([]entities.Todo, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	search = strings.ToLower(search)
	todos := make([]entities.Todo, 0)
	for _, t := range s.todos {
		if t.UserID != userID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Title), search) {
			continue
		}
		todos = append(todos, *t)
	}
	sort.Slice(todos, func(i, j int) bool { return todos[i].ID < todos[j].ID })
	return todos, nil
}

func (r *MemoryTodoRepository) FindByID(_ context.Context, id, userID uint64) (*entities.Todo, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.todos[id]
	if !ok || t.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *MemoryTodoRepository) Create(_ context.Context, todo *entities.Todo) (*entities.Todo, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[todo.UserID]; !ok {
		return nil, apperrors.ErrNotFound
	}
	s.nextTodoID++
	now := s.now()
	t := &entities.Todo{
		ID:        s.nextTodoID,
		Title:     todo.Title,
		Completed: todo.Completed,
		UserID:    todo.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.todos[t.ID] = t
	cp := *t
	return &cp, nil
}

func (r *MemoryTodoRepository) Update(_ context.Context, todo *entities.Todo) (*entities.Todo, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[todo.ID]
	if !ok || t.UserID != todo.UserID {
		return nil, apperrors.ErrNotFound
	}
	t.Title = todo.Title
	t.Completed = todo.Completed
	t.UpdatedAt = todo.UpdatedAt
	cp := *t
	return &cp, nil
}

func (r *MemoryTodoRepository) Delete(_ context.Context, id, userID uint64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok || t.UserID != userID {
		return apperrors.ErrNotFound
	}
	delete(s.todos, id)
	return nil
}
