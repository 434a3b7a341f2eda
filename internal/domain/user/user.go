package user

import (
	"context"
	"time"
)

// User is an operator allowed to use the admin API.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type Store interface {
	Create(ctx context.Context, u User) error
	GetByUsername(ctx context.Context, username string) (User, error)
}
