package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// rowQuerier is what the write helpers need from either the pool or a
// transaction, so the same helper runs inside and outside RunInTransaction.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ rowQuerier = (*pgxpool.Pool)(nil)
	_ rowQuerier = (pgx.Tx)(nil)
)

// queryReturning renders stmt and runs it for its single RETURNING row.
func queryReturning(ctx context.Context, q rowQuerier, stmt sq.Sqlizer, what string) (pgx.Row, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s: %w", what, err)
	}
	return q.QueryRow(ctx, query, args...), nil
}
