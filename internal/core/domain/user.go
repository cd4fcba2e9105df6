package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrMissingPassword    = errors.New("password required")
	ErrPasswordTooLong    = errors.New("password exceeds 72 bytes")
)

// User is the single operator account. The schema allows more than one row
// but the application only ever reads the first.
type User struct {
	ID           int64  `json:"id"`
	PasswordHash string `json:"-"`
}
