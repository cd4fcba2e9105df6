package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/refonic/inventory/internal/core/domain"
	"github.com/refonic/inventory/internal/core/ports"
)

// AuthService implements login and password change for the single operator
// account.
type AuthService struct {
	repo      ports.AuthRepository
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(repo ports.AuthRepository, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL, log: log}
}

// Login checks password against the stored hash and returns a signed token.
func (s *AuthService) Login(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", domain.ErrMissingPassword
	}

	user, err := s.operator(ctx)
	if err != nil {
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", fmt.Errorf("login: sign token: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Msg("login succeeded")
	return token, nil
}

// ChangePassword replaces the stored hash once oldPassword verifies.
func (s *AuthService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return domain.ErrMissingPassword
	}

	user, err := s.operator(ctx)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return domain.ErrPasswordTooLong
	}
	if err != nil {
		return fmt.Errorf("change password: hash: %w", err)
	}

	if err := s.repo.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Msg("password changed")
	return nil
}

// operator loads the account every credential check runs against. An empty
// users table is an authentication failure, not a missing resource.
func (s *AuthService) operator(ctx context.Context) (*domain.User, error) {
	user, err := s.repo.FindFirst(ctx)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.log.Warn().Msg("credential check with no operator account")
		return nil, domain.ErrInvalidCredentials
	}
	return user, err
}

// VerifyToken parses and validates a token issued by Login.
func (s *AuthService) VerifyToken(token string) (*ports.TokenClaims, error) {
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidCredentials
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, errors.Join(domain.ErrInvalidCredentials, err)
	}
	return &ports.TokenClaims{UserID: userID, ID: claims.ID}, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
