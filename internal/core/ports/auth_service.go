package ports

import "context"

// TokenClaims is what a verified access token carries.
type TokenClaims struct {
	UserID int64
	ID     string
}

type AuthService interface {
	Login(ctx context.Context, password string) (string, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	VerifyToken(token string) (*TokenClaims, error)
}
