package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todo-api/internal/dto"
	"todo-api/internal/entities"
	apperrors "todo-api/pkg/errors"
)

func ptr[T any](v T) *T { return &v }

func TestTodoService_CRUD(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTodoService(env.todoRepo, zap.NewNop())
	owner := env.addUser(t, "owner@example.com", entities.RoleUser)
	ctx := asPrincipal(owner, entities.RoleUser)

	list, err := svc.GetTodos(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)

	created, err := svc.CreateTodo(ctx, dto.CreateTodoDTO{Title: "wash car", Completed: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, created.UserID)
	assert.False(t, created.Completed)

	got, err := svc.FindTodo(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "wash car", got.Title)

	updated, err := svc.UpdateTodo(ctx, created.ID, dto.UpdateTodoDTO{Completed: ptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "wash car", updated.Title)

	require.NoError(t, svc.DeleteTodo(ctx, created.ID))

	_, err = svc.FindTodo(ctx, created.ID)
	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 404, httpErr.Code)
	assert.Equal(t, "Todo with id: 1 doesnt exist", httpErr.Message)

	err = svc.DeleteTodo(ctx, created.ID)
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 404, httpErr.Code)
}

func TestTodoService_EmptyUpdateKeepsTimestamp(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTodoService(env.todoRepo, zap.NewNop()).(*TodoService)
	owner := env.addUser(t, "owner@example.com", entities.RoleUser)
	ctx := asPrincipal(owner, entities.RoleUser)

	created, err := svc.CreateTodo(ctx, dto.CreateTodoDTO{Title: "make coffee", Completed: ptr(false)})
	require.NoError(t, err)

	svc.now = func() time.Time { return created.UpdatedAt.Add(time.Hour) }

	same, err := svc.UpdateTodo(ctx, created.ID, dto.UpdateTodoDTO{})
	require.NoError(t, err)
	assert.Equal(t, created.UpdatedAt, same.UpdatedAt)

	changed, err := svc.UpdateTodo(ctx, created.ID, dto.UpdateTodoDTO{Title: ptr("make tea")})
	require.NoError(t, err)
	assert.Equal(t, "make tea", changed.Title)
	assert.Equal(t, created.UpdatedAt.Add(time.Hour), changed.UpdatedAt)
}

func TestTodoService_OwnerScoped(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTodoService(env.todoRepo, zap.NewNop())
	owner := env.addUser(t, "owner@example.com", entities.RoleUser)
	other := env.addUser(t, "other@example.com", entities.RoleSuperUser)

	created, err := svc.CreateTodo(asPrincipal(owner, entities.RoleUser), dto.CreateTodoDTO{Title: "secret", Completed: ptr(true)})
	require.NoError(t, err)

	otherCtx := asPrincipal(other, entities.RoleSuperUser)
	list, err := svc.GetTodos(otherCtx, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.FindTodo(otherCtx, created.ID)
	assert.Error(t, err)
	_, err = svc.UpdateTodo(otherCtx, created.ID, dto.UpdateTodoDTO{Title: ptr("stolen")})
	assert.Error(t, err)
	assert.Error(t, svc.DeleteTodo(otherCtx, created.ID))
}

func TestTodoService_RequiresPrincipal(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTodoService(env.todoRepo, zap.NewNop())

	_, err := svc.GetTodos(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrPrincipalNotFoundInContext)
}
