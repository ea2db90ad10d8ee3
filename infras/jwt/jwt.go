package jwt

//go:generate go run go.uber.org/mock/mockgen -source=./jwt.go -destination=./mocks/jwt_mock.go -package=mocks

import (
	"errors"
	"fmt"
	"marina/config"
	"marina/shared/constant"
	"marina/shared/timezone"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidClaim = errors.New("invalid token claim")
	ErrMissingToken = errors.New("authorization header is required")
	ErrBearerPrefix = errors.New("authorization header must start with 'Bearer '")
)

const (
	bearerPrefix = "Bearer "
	clockSkew    = 30 * time.Second
)

// tokenRoles are the roles a bearer token may carry. The system role is reserved for the
// API key.
var tokenRoles = []string{constant.RoleCustomer, constant.RoleOwner, constant.RoleAdmin}

// Claims are issued by the account service. Role is one of customer, owner or admin.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type JWT interface {
	GenerateAccessToken(userID, email, role string) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
}

type hmacService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	parser *jwt.Parser
}

func New(cfg *config.Config) JWT {
	return &hmacService{
		secret: []byte(cfg.JWT.AccessSecret),
		issuer: cfg.App.Name,
		ttl:    time.Duration(cfg.JWT.AccessExpireMin) * time.Minute,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuedAt(),
			jwt.WithLeeway(clockSkew),
		),
	}
}

// GenerateAccessToken signs a short lived access token. Used by operational tooling and tests.
func (s *hmacService) GenerateAccessToken(userID, email, role string) (string, error) {
	now := timezone.Now()

	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ValidateAccessToken accepts HS256 tokens signed with the shared secret whose role is one
// the booking API knows.
func (s *hmacService) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	case claims.UserID == "" || !slices.Contains(tokenRoles, claims.Role):
		return nil, ErrInvalidClaim
	}

	return claims, nil
}

func ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingToken
	}

	token, ok := strings.CutPrefix(authHeader, bearerPrefix)
	if !ok || token == "" {
		return "", ErrBearerPrefix
	}

	return token, nil
}
