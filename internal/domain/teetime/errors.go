package teetime

import "github.com/cockroachdb/errors"

// Failure classes surfaced by a run. Concrete errors are marked with one of
// these so callers can branch with errors.Is.
var (
	// ErrConfiguration is fatal and never retried: bad preferred time, missing
	// credentials, unusable cron expression.
	ErrConfiguration = errors.New("configuration error")
	// ErrProbe covers unreachable pages, unexpected page structure and
	// timeouts. It is retried only by the next scheduled run.
	ErrProbe = errors.New("probe error")

	ErrSlotUnavailable = errors.New("slot unavailable")
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrAuth            = errors.New("authentication failed")

	// ErrInsufficientPlayers aborts a run before any external interaction.
	ErrInsufficientPlayers = errors.New("insufficient players")
	ErrBookingRejected     = errors.New("booking rejected")

	// ErrBusy is returned when a run is already in progress.
	ErrBusy = errors.New("booking process already running")
)

func ConfigurationErrorf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrConfiguration)
}

func WrapConfiguration(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrConfiguration)
}

func ProbeErrorf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrProbe)
}

// WrapProbe tags err as a probe failure, keeping its message and cause.
func WrapProbe(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrProbe)
}

// Kind names the failure class of err for logs and API payloads.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrProbe):
		return "probe"
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, ErrUnknownPlayer):
		return "unknown_player"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrInsufficientPlayers):
		return "insufficient_players"
	case errors.Is(err, ErrBookingRejected):
		return "booking_rejected"
	case errors.Is(err, ErrBusy):
		return "busy"
	default:
		return "internal"
	}
}
