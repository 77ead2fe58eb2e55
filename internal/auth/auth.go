package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"roadwatch/internal/models"
	"roadwatch/internal/repository"
)

// Authentication and authorization errors. ErrUnauthorized maps to 401,
// ErrForbidden to 403.
var (
	ErrUnauthorized = errors.New("auth: invalid credentials")
	ErrForbidden    = errors.New("auth: not enough permissions")
)

// Claims represents the JWT claims issued by this service.
type Claims struct {
	UserID string `json:"sub"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// Service issues and validates bearer tokens and resolves them to user
// accounts.
type Service struct {
	secret     []byte
	expiration time.Duration
	users      repository.UserRepository
}

func NewService(secret string, expirationMinutes int, users repository.UserRepository) *Service {
	return &Service{
		secret:     []byte(secret),
		expiration: time.Duration(expirationMinutes) * time.Minute,
		users:      users,
	}
}

// Login verifies an email/password pair and returns a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("auth: looking up user: %w", err)
	}
	if user == nil {
		return "", ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrUnauthorized
	}
	if !user.IsActive {
		return "", ErrForbidden
	}
	return s.GenerateToken(user)
}

// GenerateToken creates a signed JWT for the given user.
func (s *Service) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(s.expiration).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    "roadwatch",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Authenticate validates a bearer token and resolves the account behind it.
// Inactive accounts and accounts that no longer exist are rejected.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("auth: looking up user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// HashPassword creates a bcrypt hash from a password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}
