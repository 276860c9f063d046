package db

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"todo-api/pkg/types"
)

// ApplyListParams adds a case-insensitive contains search over searchColumns
// and, when requested, LIMIT/OFFSET.
func ApplyListParams(builder sq.SelectBuilder, filter types.Filter, searchColumns ...string) sq.SelectBuilder {
	builder = ApplySearch(builder, filter.Search, searchColumns...)

	if filter.WithPagination {
		if filter.Limit > 0 {
			builder = builder.Limit(uint64(filter.Limit))
		}
		if filter.Offset > 0 {
			builder = builder.Offset(uint64(filter.Offset))
		}
	}
	return builder
}

func ApplySearch(builder sq.SelectBuilder, search string, searchColumns ...string) sq.SelectBuilder {
	if search == "" || len(searchColumns) == 0 {
		return builder
	}
	pattern := "%" + EscapeLike(search) + "%"
	conditions := make(sq.Or, 0, len(searchColumns))
	for _, col := range searchColumns {
		conditions = append(conditions, sq.Expr(fmt.Sprintf("%s ILIKE ?", col), pattern))
	}
	return builder.Where(conditions)
}

// EscapeLike escapes the LIKE wildcards in s.
func EscapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '\\', '%', '_':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
