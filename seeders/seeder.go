package seeders

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"todo-api/internal/authz"
	"todo-api/internal/entities"
	"todo-api/internal/repositories"
	"todo-api/pkg/config"
	"todo-api/pkg/customvalidator"
	apperrors "todo-api/pkg/errors"
	"todo-api/pkg/utils"
)

const demoEmail = "demo@todo.local"

var demoTodos = []entities.Todo{
	{Title: "Read the API docs"},
	{Title: "Create a todo", Completed: true},
	{Title: "Invite a teammate"},
}

// SeedSuperAdmin creates the initial super-user with every permission. An
// existing account with the same email is left untouched.
func SeedSuperAdmin(ctx context.Context, userRepo repositories.UserRepositoryInterface, cfg config.SeedConfig, logger *zap.Logger) error {
	if !customvalidator.IsStrongPassword(cfg.AdminPassword) || len(cfg.AdminPassword) < 8 {
		return fmt.Errorf("SEED_ADMIN_PASSWORD is too weak")
	}

	if _, err := userRepo.FindByEmail(ctx, cfg.AdminEmail); err == nil {
		logger.Info("seed: super admin already exists, skipping", zap.String("email", cfg.AdminEmail))
		return nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	hashed, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	user, err := userRepo.CreateWithAccess(ctx,
		&entities.User{Name: cfg.AdminName, Email: cfg.AdminEmail, Password: hashed},
		entities.UserAccess{Role: entities.RoleSuperUser, Permissions: authz.All},
	)
	if err != nil {
		return fmt.Errorf("create super admin: %w", err)
	}
	logger.Info("seed: super admin created", zap.Uint64("userID", user.ID), zap.String("email", user.Email))
	return nil
}

// SeedDemoData creates a regular user owning a few todos. The password is
// shared with the super admin seed.
func SeedDemoData(ctx context.Context, userRepo repositories.UserRepositoryInterface, todoRepo repositories.TodoRepositoryInterface, cfg config.SeedConfig, logger *zap.Logger) error {
	if _, err := userRepo.FindByEmail(ctx, demoEmail); err == nil {
		logger.Info("seed: demo user already exists, skipping")
		return nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	hashed, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	user, err := userRepo.CreateWithAccess(ctx,
		&entities.User{Name: "Demo User", Email: demoEmail, Password: hashed},
		entities.UserAccess{Role: entities.RoleUser, Permissions: authz.All},
	)
	if err != nil {
		return fmt.Errorf("create demo user: %w", err)
	}

	for _, t := range demoTodos {
		t.UserID = user.ID
		if _, err := todoRepo.Create(ctx, &t); err != nil {
			return fmt.Errorf("create demo todo %q: %w", t.Title, err)
		}
	}
	logger.Info("seed: demo data created", zap.Uint64("userID", user.ID), zap.Int("todos", len(demoTodos)))
	return nil
}
