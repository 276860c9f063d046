package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"todo-api/internal/entities"
	db "todo-api/internal/infrastructure/bd"
	apperrors "todo-api/pkg/errors"
)

const todoTable = "todos"

var todoColumns = []string{"id", "title", "completed", "user_id", "created_at", "updated_at"}

// TodoRepositoryInterface is scoped by owner: a todo of another user is
// reported as ErrNotFound.
type TodoRepositoryInterface interface {
	ListByOwner(ctx context.Context, userID uint64, search string) ([]entities.Todo, error)
	FindByID(ctx context.Context, id, userID uint64) (*entities.Todo, error)
	Create(ctx context.Context, todo *entities.Todo) (*entities.Todo, error)
	Update(ctx context.Context, todo *entities.Todo) (*entities.Todo, error)
	Delete(ctx context.Context, id, userID uint64) error
}

type TodoRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewTodoRepository(storage *pgxpool.Pool, logger *zap.Logger) TodoRepositoryInterface {
	return &TodoRepository{storage: storage, logger: logger}
}

func scanTodo(row pgx.Row) (*entities.Todo, error) {
	var todo entities.Todo
	err := row.Scan(&todo.ID, &todo.Title, &todo.Completed, &todo.UserID, &todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &todo, nil
}

func (r *TodoRepository) ListByOwner(ctx context.Context, userID uint64, search string) ([]entities.Todo, error) {
	builder := psql.Select(todoColumns...).From(todoTable).Where(sq.Eq{"user_id": userID}).OrderBy("id ASC")
	query, args, err := db.ApplySearch(builder, search, "title").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build todo list: %w", err)
	}
	r.logger.Debug("TodoRepository: listing todos", zap.String("query", query), zap.Uint64("userID", userID))

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]entities.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *todo)
	}
	return todos, rows.Err()
}

func (r *TodoRepository) FindByID(ctx context.Context, id, userID uint64) (*entities.Todo, error) {
	query, args, err := psql.Select(todoColumns...).From(todoTable).
		Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build todo query: %w", err)
	}
	return scanTodo(r.storage.QueryRow(ctx, query, args...))
}

func (r *TodoRepository) Create(ctx context.Context, todo *entities.Todo) (*entities.Todo, error) {
	row, err := queryReturning(ctx, r.storage, psql.Insert(todoTable).
		Columns("title", "completed", "user_id").
		Values(todo.Title, todo.Completed, todo.UserID).
		Suffix("RETURNING "+joinColumns(todoColumns)), "todo insert")
	if err != nil {
		return nil, err
	}
	created, err := scanTodo(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return created, nil
}

func (r *TodoRepository) Update(ctx context.Context, todo *entities.Todo) (*entities.Todo, error) {
	row, err := queryReturning(ctx, r.storage, psql.Update(todoTable).
		Set("title", todo.Title).
		Set("completed", todo.Completed).
		Set("updated_at", todo.UpdatedAt).
		Where(sq.Eq{"id": todo.ID, "user_id": todo.UserID}).
		Suffix("RETURNING "+joinColumns(todoColumns)), "todo update")
	if err != nil {
		return nil, err
	}
	return scanTodo(row)
}

func (r *TodoRepository) Delete(ctx context.Context, id, userID uint64) error {
	query, args, err := psql.Delete(todoTable).Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build todo delete: %w", err)
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
