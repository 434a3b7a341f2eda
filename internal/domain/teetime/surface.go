package teetime

import (
	"context"
	"time"

	"github.com/example/teetime-scheduler/internal/domain/player"
)

// Surface is the booking system as seen by the engine. Implementations drive
// whatever mechanism the facility exposes (a headless browser in production).
type Surface interface {
	Open(ctx context.Context) (Session, error)
}

// Session is one live connection to the booking surface. Close must be safe
// to call more than once and from another goroutine.
type Session interface {
	ListSlots(ctx context.Context, date time.Time) ([]RawSlot, error)
	Authenticate(ctx context.Context, creds Credentials) error
	SelectSlot(ctx context.Context, date time.Time, c Candidate) error
	FillPlayers(ctx context.Context, players []player.Player, useCart bool) error
	Submit(ctx context.Context) (Outcome, error)
	Close() error
}

// Outcome is what the surface reported after submission.
type Outcome struct {
	Confirmed          bool
	ConfirmationNumber string
	Message            string
}
