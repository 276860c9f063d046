package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todo-api/internal/entities"
	"todo-api/internal/repositories"
	"todo-api/pkg/eventbus"
	"todo-api/pkg/service"
	"todo-api/pkg/utils"
)

type testEnv struct {
	mr       *miniredis.Miniredis
	store    *repositories.MemoryStore
	userRepo repositories.UserRepositoryInterface
	todoRepo repositories.TodoRepositoryInterface
	perms    AuthPermissionServiceInterface
	jwt      service.JWTService
	bus      *eventbus.Bus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := repositories.NewMemoryStore()
	env := &testEnv{
		mr:       mr,
		store:    store,
		userRepo: repositories.NewMemoryUserRepository(store),
		todoRepo: repositories.NewMemoryTodoRepository(store),
		jwt:      service.NewJWTService("service-secret", 30*time.Second, 50*time.Second),
		bus:      eventbus.New(zap.NewNop()),
	}
	env.perms = NewAuthPermissionService(env.userRepo, repositories.NewRedisCacheRepository(client), zap.NewNop(), time.Minute)
	return env
}

func (e *testEnv) addUser(t *testing.T, email string, role entities.Role, perms ...string) *entities.User {
	t.Helper()
	hashed, err := utils.HashPassword("Password@123")
	require.NoError(t, err)
	u, err := e.userRepo.CreateWithAccess(context.Background(),
		&entities.User{Name: email, Email: email, Password: hashed},
		entities.UserAccess{Role: role, Permissions: perms})
	require.NoError(t, err)
	return u
}

func asPrincipal(u *entities.User, role entities.Role, perms ...string) context.Context {
	return utils.WithPrincipal(context.Background(), u.Principal(entities.UserAccess{Role: role, Permissions: perms}))
}
