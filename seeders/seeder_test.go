package seeders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todo-api/internal/entities"
	"todo-api/internal/repositories"
	"todo-api/pkg/config"
	"todo-api/pkg/utils"
)

func seedConfig() config.SeedConfig {
	return config.SeedConfig{AdminName: "Super Admin", AdminEmail: "admin@todo.local", AdminPassword: "Admin@1234"}
}

func TestSeedSuperAdmin(t *testing.T) {
	ctx := context.Background()
	userRepo := repositories.NewMemoryUserRepository(repositories.NewMemoryStore())

	require.NoError(t, SeedSuperAdmin(ctx, userRepo, seedConfig(), zap.NewNop()))
	require.NoError(t, SeedSuperAdmin(ctx, userRepo, seedConfig(), zap.NewNop()))

	admin, err := userRepo.FindByEmail(ctx, "admin@todo.local")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), admin.ID)
	assert.NoError(t, utils.ComparePasswords(admin.Password, "Admin@1234"))

	access, err := userRepo.GetAccess(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.RoleSuperUser, access.Role)
	assert.Len(t, access.Permissions, 4)
}

func TestSeedSuperAdmin_WeakPassword(t *testing.T) {
	cfg := seedConfig()
	cfg.AdminPassword = "password"
	userRepo := repositories.NewMemoryUserRepository(repositories.NewMemoryStore())

	assert.Error(t, SeedSuperAdmin(context.Background(), userRepo, cfg, zap.NewNop()))
}

func TestSeedDemoData(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	userRepo := repositories.NewMemoryUserRepository(store)
	todoRepo := repositories.NewMemoryTodoRepository(store)

	require.NoError(t, SeedDemoData(ctx, userRepo, todoRepo, seedConfig(), zap.NewNop()))
	require.NoError(t, SeedDemoData(ctx, userRepo, todoRepo, seedConfig(), zap.NewNop()))

	demo, err := userRepo.FindByEmail(ctx, demoEmail)
	require.NoError(t, err)
	todos, err := todoRepo.ListByOwner(ctx, demo.ID, "")
	require.NoError(t, err)
	assert.Len(t, todos, 3)
}
