package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"todo-api/internal/entities"
	"todo-api/internal/repositories"
	apperrors "todo-api/pkg/errors"
)

type AuthPermissionServiceInterface interface {
	GetAccess(ctx context.Context, userID uint64) (entities.UserAccess, error)
	// LoadPrincipal rebuilds the principal of a stored user. ErrNotFound when
	// the user no longer exists.
	LoadPrincipal(ctx context.Context, userID uint64) (*entities.Principal, error)
	InvalidateAccessCache(ctx context.Context, userID uint64) error
}

type AuthPermissionService struct {
	userRepo  repositories.UserRepositoryInterface
	cacheRepo repositories.CacheRepositoryInterface
	logger    *zap.Logger
	cacheTTL  time.Duration
}

func NewAuthPermissionService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	logger *zap.Logger,
	cacheTTL time.Duration,
) AuthPermissionServiceInterface {
	return &AuthPermissionService{
		userRepo:  userRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

func accessCacheKey(userID uint64) string {
	return fmt.Sprintf("auth:access:user:%d", userID)
}

func (s *AuthPermissionService) GetAccess(ctx context.Context, userID uint64) (entities.UserAccess, error) {
	cacheKey := accessCacheKey(userID)
	var access entities.UserAccess

	cached, errGet := s.cacheRepo.Get(ctx, cacheKey)
	if errGet == nil {
		if err := json.Unmarshal([]byte(cached), &access); err == nil {
			s.logger.Debug("AuthPermissionService: access found in cache", zap.Uint64("userID", userID))
			return access, nil
		} else {
			s.logger.Warn("AuthPermissionService: corrupt cache entry", zap.String("key", cacheKey), zap.Error(err))
		}
	} else if !errors.Is(errGet, repositories.ErrCacheMiss) {
		s.logger.Warn("AuthPermissionService: cache read failed, falling back to store", zap.Uint64("userID", userID), zap.Error(errGet))
	}

	access, err := s.userRepo.GetAccess(ctx, userID)
	if err != nil {
		s.logger.Error("AuthPermissionService: failed to load access", zap.Uint64("userID", userID), zap.Error(err))
		return entities.UserAccess{}, apperrors.ErrInternalServer
	}

	payload, errMarshal := json.Marshal(access)
	if errMarshal != nil {
		s.logger.Error("AuthPermissionService: failed to encode access", zap.Uint64("userID", userID), zap.Error(errMarshal))
		return access, nil
	}
	if errSet := s.cacheRepo.Set(ctx, cacheKey, string(payload), s.cacheTTL); errSet != nil {
		s.logger.Error("AuthPermissionService: failed to cache access", zap.Uint64("userID", userID), zap.Error(errSet))
	}
	return access, nil
}

func (s *AuthPermissionService) LoadPrincipal(ctx context.Context, userID uint64) (*entities.Principal, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	access, err := s.GetAccess(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Principal(access), nil
}

func (s *AuthPermissionService) InvalidateAccessCache(ctx context.Context, userID uint64) error {
	if err := s.cacheRepo.Del(ctx, accessCacheKey(userID)); err != nil {
		s.logger.Error("AuthPermissionService: failed to invalidate access cache", zap.Uint64("userID", userID), zap.Error(err))
		return err
	}
	s.logger.Debug("AuthPermissionService: access cache invalidated", zap.Uint64("userID", userID))
	return nil
}
