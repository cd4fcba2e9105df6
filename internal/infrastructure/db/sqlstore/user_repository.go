package sqlstore

import (
	"context"

	"github.com/spf13/cast"

	"github.com/refonic/inventory/internal/core/domain"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindFirst(ctx context.Context) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.Query(ctx, "SELECT id, password_hash FROM users ORDER BY id LIMIT 1")
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, domain.ErrUserNotFound
	}
	row := res.Rows[0]
	return &domain.User{
		ID:           cast.ToInt64(row["id"]),
		PasswordHash: cast.ToString(row["password_hash"]),
	}, nil
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.Query(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
	if err != nil {
		return err
	}
	if res.RowCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
