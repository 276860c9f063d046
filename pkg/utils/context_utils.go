// File: pkg/utils/context_utils.go

package utils

import (
	"context"

	"todo-api/internal/entities"
	"todo-api/pkg/contextkeys"
	apperrors "todo-api/pkg/errors"
)

func WithPrincipal(ctx context.Context, p *entities.Principal) context.Context {
	return context.WithValue(ctx, contextkeys.PrincipalKey, p)
}

func GetPrincipalFromCtx(ctx context.Context) (*entities.Principal, error) {
	p, ok := ctx.Value(contextkeys.PrincipalKey).(*entities.Principal)
	if !ok || p == nil {
		return nil, apperrors.ErrPrincipalNotFoundInContext
	}
	return p, nil
}
