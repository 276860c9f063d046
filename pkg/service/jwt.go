package service

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"todo-api/internal/entities"
	apperrors "todo-api/pkg/errors"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// JwtCustomClaim is the payload of both token kinds.
type JwtCustomClaim struct {
	ID          uint64        `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Role        entities.Role `json:"role,omitempty"`
	Permissions []string      `json:"permissions,omitempty"`
	TokenType   TokenType     `json:"tokenType"`
	jwt.RegisteredClaims
}

// Principal rebuilds the request identity from the claims.
func (c *JwtCustomClaim) Principal() *entities.Principal {
	role := c.Role
	if !role.Valid() {
		role = entities.RoleUser
	}
	return &entities.Principal{
		ID:          c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Role:        role,
		Permissions: entities.NewPermissionSet(c.Permissions...),
	}
}

func ClaimsFor(p *entities.Principal) JwtCustomClaim {
	return JwtCustomClaim{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		Role:        p.Role,
		Permissions: p.Permissions.List(),
	}
}

type JWTService interface {
	Issue(claims JwtCustomClaim, ttl time.Duration) (string, error)
	GenerateTokens(p *entities.Principal) (string, string, error)
	ValidateToken(tokenString string) (*JwtCustomClaim, error)
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

type jwtService struct {
	secretKey       []byte
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	now             func() time.Time
}

type Option func(*jwtService)

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(s *jwtService) { s.now = now }
}

func NewJWTService(secretKey string, accessTokenExp, refreshTokenExp time.Duration, opts ...Option) JWTService {
	s := &jwtService{
		secretKey:       []byte(secretKey),
		accessTokenExp:  accessTokenExp,
		refreshTokenExp: refreshTokenExp,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *jwtService) Issue(claims JwtCustomClaim, ttl time.Duration) (string, error) {
	issuedAt := s.now()
	claims.IssuedAt = jwt.NewNumericDate(issuedAt)
	claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(ttl))
	if claims.TokenType == "" {
		claims.TokenType = AccessToken
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString(s.secretKey)
}

func (s *jwtService) GenerateTokens(p *entities.Principal) (string, string, error) {
	claims := ClaimsFor(p)

	claims.TokenType = AccessToken
	accessToken, err := s.Issue(claims, s.accessTokenExp)
	if err != nil {
		return "", "", err
	}

	claims.TokenType = RefreshToken
	refreshToken, err := s.Issue(claims, s.refreshTokenExp)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (s *jwtService) GetAccessTokenTTL() time.Duration {
	return s.accessTokenExp
}

func (s *jwtService) GetRefreshTokenTTL() time.Duration {
	return s.refreshTokenExp
}

// ValidateToken checks the signature first and the expiry second, so a forged
// expired token reports ErrInvalidSignature.
func (s *jwtService) ValidateToken(tokenString string) (*JwtCustomClaim, error) {
	claims := &JwtCustomClaim{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrInvalidSigningMethod
		}
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return apperrors.ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return apperrors.ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return apperrors.ErrTokenNotYetValid
	default:
		return apperrors.ErrInvalidToken
	}
}
