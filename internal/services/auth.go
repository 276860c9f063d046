package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"todo-api/internal/dto"
	"todo-api/internal/entities"
	"todo-api/internal/repositories"
	apperrors "todo-api/pkg/errors"
	"todo-api/pkg/service"
	"todo-api/pkg/utils"
)

const msgRefreshTokenInvalid = "refresh token invalid"

type AuthServiceInterface interface {
	SignUp(ctx context.Context, payload dto.SignUpDTO) (*entities.User, error)
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.RefreshedTokensDTO, error)
}

type AuthService struct {
	userRepo              repositories.UserRepositoryInterface
	authPermissionService AuthPermissionServiceInterface
	jwtSvc                service.JWTService
	logger                *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	authPermissionService AuthPermissionServiceInterface,
	jwtSvc service.JWTService,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{
		userRepo:              userRepo,
		authPermissionService: authPermissionService,
		jwtSvc:                jwtSvc,
		logger:                logger,
	}
}

// SignUp stores the user with the requested role and permissions. The email
// must not be in use.
func (s *AuthService) SignUp(ctx context.Context, payload dto.SignUpDTO) (*entities.User, error) {
	email := strings.TrimSpace(payload.Email)
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.ErrEmailTaken
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hashed, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}

	access := entities.UserAccess{
		Role:        entities.Role(payload.Role),
		Permissions: entities.NewPermissionSet(payload.Permissions...).List(),
	}
	user, err := s.userRepo.CreateWithAccess(ctx, &entities.User{
		Name:     payload.Name,
		Email:    email,
		Password: hashed,
	}, access)
	if err != nil {
		return nil, err
	}
	s.logger.Info("AuthService: user signed up", zap.Uint64("userID", user.ID), zap.String("role", string(access.Role)))
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(payload.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := utils.ComparePasswords(user.Password, payload.Password); err != nil {
		s.logger.Debug("AuthService: password mismatch", zap.Uint64("userID", user.ID))
		return nil, apperrors.ErrInvalidCredentials
	}

	access, err := s.authPermissionService.GetAccess(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	accessToken, refreshToken, err := s.jwtSvc.GenerateTokens(user.Principal(access))
	if err != nil {
		return nil, err
	}
	return &dto.TokenPairDTO{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh exchanges a refresh token for a new pair. Role and permissions are
// read again from the store.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.RefreshedTokensDTO, error) {
	if refreshToken == "" {
		return nil, apperrors.NewBadRequestError(msgRefreshTokenInvalid)
	}
	claims, err := s.jwtSvc.ValidateToken(refreshToken)
	if err != nil {
		s.logger.Debug("AuthService: refresh token rejected", zap.Error(err))
		return nil, apperrors.NewBadRequestError(msgRefreshTokenInvalid)
	}
	if claims.TokenType != service.RefreshToken {
		return nil, apperrors.NewBadRequestError(msgRefreshTokenInvalid).WithCause(apperrors.ErrTokenIsNotRefresh)
	}

	principal, err := s.authPermissionService.LoadPrincipal(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewBadRequestError(msgRefreshTokenInvalid)
		}
		return nil, err
	}

	accessToken, newRefreshToken, err := s.jwtSvc.GenerateTokens(principal)
	if err != nil {
		return nil, err
	}
	return &dto.RefreshedTokensDTO{NewAccessToken: accessToken, NewRefreshToken: newRefreshToken}, nil
}
