package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"todo-api/internal/entities"
	db "todo-api/internal/infrastructure/bd"
	apperrors "todo-api/pkg/errors"
	"todo-api/pkg/types"
)

const (
	userTable           = "users"
	userRoleTable       = "user_role"
	userPermissionTable = "user_permissions"

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var (
	userColumns           = []string{"id", "name", "email", "password", "created_at", "updated_at"}
	userRoleColumns       = []string{"id", "user_id", "user_role", "created_at"}
	userPermissionColumns = []string{"id", "user_id", "permission_type", "created_by", "created_at"}

	psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
)

type UserRepositoryInterface interface {
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	FindByID(ctx context.Context, id uint64) (*entities.User, error)
	Create(ctx context.Context, user *entities.User) (*entities.User, error)
	// CreateWithAccess stores the user together with its role and permissions.
	CreateWithAccess(ctx context.Context, user *entities.User, access entities.UserAccess) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) (*entities.User, error)
	Delete(ctx context.Context, id uint64) error
	ListPaged(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error)
	// CreateRole sets the role of a user, replacing the previous one.
	CreateRole(ctx context.Context, userID uint64, role entities.Role) (*entities.UserRole, error)
	// CreatePermission grants a permission. Granting it twice returns the
	// existing grant.
	CreatePermission(ctx context.Context, permission *entities.UserPermission) (*entities.UserPermission, error)
	GetAccess(ctx context.Context, userID uint64) (entities.UserAccess, error)
}

type UserRepository struct {
	storage   *pgxpool.Pool
	txManager TxManagerInterface
	logger    *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, txManager TxManagerInterface, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, txManager: txManager, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// mapWriteError turns constraint violations into domain errors.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if strings.Contains(pgErr.ConstraintName, "email") {
				return apperrors.ErrEmailTaken
			}
		case pgForeignKeyViolation:
			return apperrors.ErrNotFound
		}
	}
	return err
}

func (r *UserRepository) findOne(ctx context.Context, where sq.Eq) (*entities.User, error) {
	query, args, err := psql.Select(userColumns...).From(userTable).Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}
	return scanUser(r.storage.QueryRow(ctx, query, args...))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findOne(ctx, sq.Eq{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entities.User, error) {
	return r.findOne(ctx, sq.Eq{"id": id})
}

func insertUser(ctx context.Context, q rowQuerier, user *entities.User) (*entities.User, error) {
	row, err := queryReturning(ctx, q, psql.Insert(userTable).
		Columns("name", "email", "password").
		Values(user.Name, user.Email, user.Password).
		Suffix("RETURNING "+joinColumns(userColumns)), "user insert")
	if err != nil {
		return nil, err
	}
	created, err := scanUser(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return created, nil
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) (*entities.User, error) {
	return insertUser(ctx, r.storage, user)
}

func (r *UserRepository) CreateWithAccess(ctx context.Context, user *entities.User, access entities.UserAccess) (*entities.User, error) {
	var created *entities.User
	err := r.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		created, err = insertUser(ctx, tx, user)
		if err != nil {
			return err
		}
		if _, err = upsertRole(ctx, tx, created.ID, access.Role); err != nil {
			return err
		}
		for _, p := range access.Permissions {
			if _, err = upsertPermission(ctx, tx, &entities.UserPermission{UserID: created.ID, PermissionType: p}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("UserRepository: user created with access", zap.Uint64("userID", created.ID), zap.Int("permissions", len(access.Permissions)))
	return created, nil
}

func (r *UserRepository) Update(ctx context.Context, user *entities.User) (*entities.User, error) {
	query, args, err := psql.Update(userTable).
		Set("name", user.Name).
		Set("email", user.Email).
		Set("password", user.Password).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": user.ID}).
		Suffix("RETURNING " + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user update: %w", err)
	}
	updated, err := scanUser(r.storage.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return updated, nil
}

// Delete removes the user; roles, permissions and todos go with it through
// ON DELETE CASCADE.
func (r *UserRepository) Delete(ctx context.Context, id uint64) error {
	query, args, err := psql.Delete(userTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user delete: %w", err)
	}
	result, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ListPaged(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	countQuery, countArgs, err := db.ApplySearch(psql.Select("COUNT(*)").From(userTable), filter.Search, "name").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build user count: %w", err)
	}
	r.logger.Debug("UserRepository: counting users", zap.String("query", countQuery), zap.Any("args", countArgs))

	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	if total == 0 {
		return []entities.User{}, 0, nil
	}

	builder := db.ApplyListParams(psql.Select(userColumns...).From(userTable).OrderBy("id ASC"), filter, "name")
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build user list: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}
	return users, total, rows.Err()
}

func upsertRole(ctx context.Context, q rowQuerier, userID uint64, role entities.Role) (*entities.UserRole, error) {
	row, err := queryReturning(ctx, q, psql.Insert(userRoleTable).
		Columns("user_id", "user_role").
		Values(userID, string(role)).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET user_role = EXCLUDED.user_role RETURNING "+joinColumns(userRoleColumns)), "role upsert")
	if err != nil {
		return nil, err
	}
	var ur entities.UserRole
	if err := row.Scan(&ur.ID, &ur.UserID, &ur.UserRole, &ur.CreatedAt); err != nil {
		return nil, mapWriteError(err)
	}
	return &ur, nil
}

func upsertPermission(ctx context.Context, q rowQuerier, p *entities.UserPermission) (*entities.UserPermission, error) {
	row, err := queryReturning(ctx, q, psql.Insert(userPermissionTable).
		Columns("user_id", "permission_type", "created_by").
		Values(p.UserID, p.PermissionType, p.CreatedBy).
		Suffix("ON CONFLICT (user_id, permission_type) DO UPDATE SET permission_type = EXCLUDED.permission_type RETURNING "+joinColumns(userPermissionColumns)), "permission upsert")
	if err != nil {
		return nil, err
	}
	var up entities.UserPermission
	if err := row.Scan(&up.ID, &up.UserID, &up.PermissionType, &up.CreatedBy, &up.CreatedAt); err != nil {
		return nil, mapWriteError(err)
	}
	return &up, nil
}

func (r *UserRepository) CreateRole(ctx context.Context, userID uint64, role entities.Role) (*entities.UserRole, error) {
	return upsertRole(ctx, r.storage, userID, role)
}

func (r *UserRepository) CreatePermission(ctx context.Context, permission *entities.UserPermission) (*entities.UserPermission, error) {
	return upsertPermission(ctx, r.storage, permission)
}

// GetAccess reads the role and permissions of a user. A user without a role
// row has the plain user role.
func (r *UserRepository) GetAccess(ctx context.Context, userID uint64) (entities.UserAccess, error) {
	access := entities.UserAccess{Role: entities.RoleUser, Permissions: []string{}}

	roleQuery, roleArgs, err := psql.Select("user_role").From(userRoleTable).Where(sq.Eq{"user_id": userID}).Limit(1).ToSql()
	if err != nil {
		return access, fmt.Errorf("failed to build role query: %w", err)
	}
	var role string
	switch err := r.storage.QueryRow(ctx, roleQuery, roleArgs...).Scan(&role); {
	case err == nil:
		access.Role = entities.Role(role)
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return access, fmt.Errorf("failed to read user role: %w", err)
	}

	permQuery, permArgs, err := psql.Select("permission_type").From(userPermissionTable).
		Where(sq.Eq{"user_id": userID}).OrderBy("permission_type").ToSql()
	if err != nil {
		return access, fmt.Errorf("failed to build permission query: %w", err)
	}
	rows, err := r.storage.Query(ctx, permQuery, permArgs...)
	if err != nil {
		return access, fmt.Errorf("failed to read user permissions: %w", err)
	}
	perms, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return access, fmt.Errorf("failed to scan user permissions: %w", err)
	}
	if len(perms) > 0 {
		access.Permissions = perms
	}
	return access, nil
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
