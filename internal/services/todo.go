package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"todo-api/internal/dto"
	"todo-api/internal/entities"
	"todo-api/internal/repositories"
	apperrors "todo-api/pkg/errors"
	"todo-api/pkg/utils"
)

type TodoServiceInterface interface {
	GetTodos(ctx context.Context, search string) ([]dto.TodoDTO, error)
	FindTodo(ctx context.Context, id uint64) (*dto.TodoDTO, error)
	CreateTodo(ctx context.Context, payload dto.CreateTodoDTO) (*dto.TodoDTO, error)
	UpdateTodo(ctx context.Context, id uint64, payload dto.UpdateTodoDTO) (*dto.TodoDTO, error)
	DeleteTodo(ctx context.Context, id uint64) error
}

// TodoService works on the todos of the principal found in ctx.
type TodoService struct {
	todoRepo repositories.TodoRepositoryInterface
	logger   *zap.Logger
	now      func() time.Time
}

func NewTodoService(todoRepo repositories.TodoRepositoryInterface, logger *zap.Logger) TodoServiceInterface {
	return &TodoService{todoRepo: todoRepo, logger: logger, now: time.Now}
}

func todoToDTO(t *entities.Todo) dto.TodoDTO {
	return dto.TodoDTO{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		UserID:    t.UserID,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func todoNotFound(id uint64) error {
	return apperrors.NewNotFoundError(fmt.Sprintf("Todo with id: %d doesnt exist", id))
}

func (s *TodoService) owner(ctx context.Context) (uint64, error) {
	p, err := utils.GetPrincipalFromCtx(ctx)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (s *TodoService) GetTodos(ctx context.Context, search string) ([]dto.TodoDTO, error) {
	userID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	todos, err := s.todoRepo.ListByOwner(ctx, userID, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	result := make([]dto.TodoDTO, 0, len(todos))
	for i := range todos {
		result = append(result, todoToDTO(&todos[i]))
	}
	return result, nil
}

func (s *TodoService) find(ctx context.Context, id, userID uint64) (*entities.Todo, error) {
	todo, err := s.todoRepo.FindByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, todoNotFound(id)
		}
		return nil, err
	}
	return todo, nil
}

func (s *TodoService) FindTodo(ctx context.Context, id uint64) (*dto.TodoDTO, error) {
	userID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	todo, err := s.find(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	res := todoToDTO(todo)
	return &res, nil
}

func (s *TodoService) CreateTodo(ctx context.Context, payload dto.CreateTodoDTO) (*dto.TodoDTO, error) {
	userID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	todo := &entities.Todo{Title: payload.Title, UserID: userID}
	if payload.Completed != nil {
		todo.Completed = *payload.Completed
	}
	created, err := s.todoRepo.Create(ctx, todo)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("TodoService: todo created", zap.Uint64("todoID", created.ID), zap.Uint64("userID", userID))
	res := todoToDTO(created)
	return &res, nil
}

// UpdateTodo applies the present fields. An update without fields returns
// the todo unchanged.
func (s *TodoService) UpdateTodo(ctx context.Context, id uint64, payload dto.UpdateTodoDTO) (*dto.TodoDTO, error) {
	userID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	todo, err := s.find(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	changes := entities.TodoChanges{Title: payload.Title, Completed: payload.Completed}
	if !todo.Apply(changes, s.now()) {
		res := todoToDTO(todo)
		return &res, nil
	}

	updated, err := s.todoRepo.Update(ctx, todo)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, todoNotFound(id)
		}
		return nil, err
	}
	res := todoToDTO(updated)
	return &res, nil
}

func (s *TodoService) DeleteTodo(ctx context.Context, id uint64) error {
	userID, err := s.owner(ctx)
	if err != nil {
		return err
	}
	if err := s.todoRepo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return todoNotFound(id)
		}
		return err
	}
	s.logger.Debug("TodoService: todo deleted", zap.Uint64("todoID", id), zap.Uint64("userID", userID))
	return nil
}
