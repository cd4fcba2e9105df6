package ports

import (
	"context"

	"github.com/refonic/inventory/internal/core/domain"
)

// AuthRepository defines persistence for the operator credential.
type AuthRepository interface {
	// FindFirst returns the first user row, or domain.ErrUserNotFound.
	FindFirst(ctx context.Context) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}
