package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/teetime-scheduler/internal/db"
	"github.com/example/teetime-scheduler/internal/domain/user"
)

type UserRepo struct{ db *db.DB }

func NewUserRepo(d *db.DB) *UserRepo { return &UserRepo{db: d} }

func (r *UserRepo) Create(ctx context.Context, u user.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return r.db.Exec(ctx,
		`INSERT INTO users (id, username, password_bcrypt, created_at) VALUES ($1,$2,$3,$4)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt,
	)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User
	err := r.db.QueryRow(ctx, `SELECT id, username, password_bcrypt, created_at FROM users WHERE username=$1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return user.User{}, db.WrapNotFound(err)
	}
	return u, nil
}
