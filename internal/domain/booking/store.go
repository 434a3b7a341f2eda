package booking

import (
	"context"
	"time"

	"github.com/example/teetime-scheduler/internal/domain/teetime"
)

// Store persists terminal booking attempts. Create rejects attempts that are
// still pending.
type Store interface {
	Create(ctx context.Context, a teetime.BookingAttempt) (teetime.BookingAttempt, error)
	Get(ctx context.Context, id string) (teetime.BookingAttempt, error)
	List(ctx context.Context) ([]teetime.BookingAttempt, error)
	// ListUpcoming and ListPast return confirmed bookings only, split at now
	// using the tee date and time in the facility zone.
	ListUpcoming(ctx context.Context, now time.Time) ([]teetime.BookingAttempt, error)
	ListPast(ctx context.Context, now time.Time) ([]teetime.BookingAttempt, error)
	Update(ctx context.Context, a teetime.BookingAttempt) (teetime.BookingAttempt, error)
	Delete(ctx context.Context, id string) error
	MarkReminderSent(ctx context.Context, id string) error
}
