package player

import (
	"context"
	"time"
)

// Player is a golfer who can be named on a booking.
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=100"`
	Email     string    `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone     string    `json:"phone,omitempty" validate:"omitempty,max=32"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store lists players in a stable order (creation time, then id).
type Store interface {
	List(ctx context.Context) ([]Player, error)
	Get(ctx context.Context, id string) (Player, error)
	Create(ctx context.Context, p Player) (Player, error)
	Update(ctx context.Context, p Player) (Player, error)
	Delete(ctx context.Context, id string) error
	SearchByName(ctx context.Context, query string) ([]Player, error)
}

// FirstEmail returns the email of the first player that has one.
func FirstEmail(players []Player) (string, bool) {
	for _, p := range players {
		if p.Email != "" {
			return p.Email, true
		}
	}
	return "", false
}
