package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"todo-api/internal/dto"
	"todo-api/internal/entities"
	"todo-api/internal/events"
	"todo-api/internal/repositories"
	apperrors "todo-api/pkg/errors"
	"todo-api/pkg/eventbus"
	"todo-api/pkg/types"
	"todo-api/pkg/utils"
)

type UserServiceInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error)
	FindUser(ctx context.Context, id uint64) (*dto.UserDTO, error)
	CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserDTO, error)
	UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*dto.UserDTO, error)
	DeleteUser(ctx context.Context, id uint64) error
	CreateRole(ctx context.Context, payload dto.CreateRoleDTO) (*dto.UserRoleDTO, error)
	CreatePermission(ctx context.Context, payload dto.CreatePermissionDTO) (*dto.UserPermissionDTO, error)
}

// EventPublisher is satisfied by *eventbus.Bus.
type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

type UserService struct {
	userRepo              repositories.UserRepositoryInterface
	authPermissionService AuthPermissionServiceInterface
	publisher             EventPublisher
	logger                *zap.Logger
}

func NewUserService(
	userRepo repositories.UserRepositoryInterface,
	authPermissionService AuthPermissionServiceInterface,
	publisher EventPublisher,
	logger *zap.Logger,
) UserServiceInterface {
	return &UserService{
		userRepo:              userRepo,
		authPermissionService: authPermissionService,
		publisher:             publisher,
		logger:                logger,
	}
}

func actorID(ctx context.Context) uint64 {
	if p, err := utils.GetPrincipalFromCtx(ctx); err == nil {
		return p.ID
	}
	return 0
}

func userNotFound(id uint64) error {
	return apperrors.NewNotFoundError(fmt.Sprintf("User with id: %d doesnt exist", id))
}

func userToDTO(u *entities.User, access entities.UserAccess) dto.UserDTO {
	res := dto.UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(access.Role),
		Permissions: access.Permissions,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
	if res.Permissions == nil {
		res.Permissions = []string{}
	}
	if u.UpdatedAt.Valid {
		updated := u.UpdatedAt.Time.Format(time.RFC3339)
		res.UpdatedAt = &updated
	}
	return res
}

func (s *UserService) withAccess(ctx context.Context, u *entities.User) (dto.UserDTO, error) {
	access, err := s.authPermissionService.GetAccess(ctx, u.ID)
	if err != nil {
		return dto.UserDTO{}, err
	}
	return userToDTO(u, access), nil
}

func (s *UserService) GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error) {
	users, total, err := s.userRepo.ListPaged(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		d, err := s.withAccess(ctx, &users[i])
		if err != nil {
			return nil, 0, err
		}
		result = append(result, d)
	}
	return result, total, nil
}

func (s *UserService) find(ctx context.Context, id uint64) (*entities.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, userNotFound(id)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) FindUser(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	d, err := s.withAccess(ctx, user)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *UserService) CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserDTO, error) {
	email := strings.TrimSpace(payload.Email)
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.ErrEmailTaken
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hashed, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.Create(ctx, &entities.User{Name: payload.Name, Email: email, Password: hashed})
	if err != nil {
		return nil, err
	}
	s.logger.Info("UserService: user created", zap.Uint64("userID", user.ID))
	d := userToDTO(user, entities.UserAccess{Role: entities.RoleUser})
	return &d, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*dto.UserDTO, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload.Name != nil {
		user.Name = *payload.Name
	}
	if payload.Email != nil {
		user.Email = strings.TrimSpace(*payload.Email)
	}
	if payload.Password != nil {
		hashed, err := utils.HashPassword(*payload.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	updated, err := s.userRepo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, userNotFound(id)
		}
		return nil, err
	}
	d, err := s.withAccess(ctx, updated)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// invalidateAccess drops the cached access of userID. A failure leaves the
// old role and permissions cached until the entry expires.
func (s *UserService) invalidateAccess(ctx context.Context, userID uint64, operation string) {
	if err := s.authPermissionService.InvalidateAccessCache(ctx, userID); err != nil {
		s.logger.Warn("UserService: access cache left stale",
			zap.String("operation", operation),
			zap.Uint64("userID", userID),
			zap.Error(err))
	}
}

func (s *UserService) DeleteUser(ctx context.Context, id uint64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return userNotFound(id)
		}
		return err
	}
	s.invalidateAccess(ctx, id, "delete")
	s.publisher.Publish(ctx, events.UserDeletedEvent{UserID: id, ActorID: actorID(ctx)})
	s.logger.Info("UserService: user deleted", zap.Uint64("userID", id))
	return nil
}

func (s *UserService) CreateRole(ctx context.Context, payload dto.CreateRoleDTO) (*dto.UserRoleDTO, error) {
	ur, err := s.userRepo.CreateRole(ctx, payload.UserID, entities.Role(payload.UserRole))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, userNotFound(payload.UserID)
		}
		return nil, err
	}
	s.invalidateAccess(ctx, payload.UserID, "role")
	s.publisher.Publish(ctx, events.UserAccessChangedEvent{
		UserID: payload.UserID, ActorID: actorID(ctx), Change: "role", Value: payload.UserRole,
	})
	return &dto.UserRoleDTO{ID: ur.ID, UserID: ur.UserID, UserRole: string(ur.UserRole)}, nil
}

// CreatePermission records the caller as the grantor.
func (s *UserService) CreatePermission(ctx context.Context, payload dto.CreatePermissionDTO) (*dto.UserPermissionDTO, error) {
	grant := &entities.UserPermission{UserID: payload.UserID, PermissionType: payload.PermissionType}
	actor := actorID(ctx)
	if actor != 0 {
		grant.CreatedBy = null.Int64From(int64(actor))
	}

	up, err := s.userRepo.CreatePermission(ctx, grant)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, userNotFound(payload.UserID)
		}
		return nil, err
	}
	s.invalidateAccess(ctx, payload.UserID, "permission")
	s.publisher.Publish(ctx, events.UserAccessChangedEvent{
		UserID: payload.UserID, ActorID: actor, Change: "permission", Value: up.PermissionType,
	})

	res := &dto.UserPermissionDTO{ID: up.ID, UserID: up.UserID, PermissionType: up.PermissionType}
	if up.CreatedBy.Valid {
		createdBy := uint64(up.CreatedBy.Int64)
		res.CreatedBy = &createdBy
	}
	return res, nil
}
