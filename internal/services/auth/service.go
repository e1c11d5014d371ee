// Package auth handles account signup, login and bearer token resolution.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/interfaces"
	"github.com/vrautomations/cryptotrack/internal/models"
)

const (
	// TokenTTL is the lifetime of an issued session token.
	TokenTTL = time.Hour

	bcryptCost        = 10
	maxPasswordLength = 72 // bcrypt ignores anything past this
)

var (
	ErrMissingField       = errors.New("missing required fields")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoToken            = errors.New("no token provided")
	ErrUnauthorized       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
)

// Service issues and verifies HS256 session tokens over a UserStore.
type Service struct {
	users  interfaces.UserStore
	secret []byte
	logger *common.Logger
	now    func() time.Time // injectable clock for testing
}

// NewService creates an auth service signing with secret.
func NewService(users interfaces.UserStore, secret string, logger *common.Logger) *Service {
	return &Service{
		users:  users,
		secret: []byte(secret),
		logger: logger,
		now:    time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func passwordBytes(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordLength {
		b = b[:maxPasswordLength]
	}
	return b
}

// Signup creates an account and returns it with a fresh token.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*models.AuthResult, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingField
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateUser
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword(passwordBytes(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		UserID:       uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.UserID).Msg("User signed up")
	return &models.AuthResult{User: user.Public(), Token: token}, nil
}

// Login verifies credentials. Unknown email and wrong password share one error.
func (s *Service) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingField
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), passwordBytes(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResult{User: user.Public(), Token: token}, nil
}

// Resolve validates token and loads its user.
func (s *Service) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrUnauthorized
	}

	id, _ := claims["id"].(string)
	if id == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	// the token must name the same account it was issued for
	email, _ := claims["email"].(string)
	if !strings.EqualFold(strings.TrimSpace(email), user.Email) {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// ResolveHeader extracts a bearer token from an Authorization header value.
func (s *Service) ResolveHeader(ctx context.Context, authorization string) (*models.User, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, ErrNoToken
	}
	return s.Resolve(ctx, strings.TrimSpace(token))
}

func (s *Service) issue(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"id":    user.UserID,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
