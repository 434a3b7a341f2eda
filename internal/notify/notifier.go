package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/example/teetime-scheduler/internal/domain/player"
	"github.com/example/teetime-scheduler/internal/domain/settings"
	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/platform/logging"
)

// Notifier formats booking emails and sends them when the current
// notification settings allow it. Every Send method reports whether a
// message actually went out; a disabled flag is not an error.
type Notifier struct {
	Settings settings.Store
	Players  player.Store
	Mailer   Mailer
	Facility string
	Location *time.Location
	Log      *logging.Logger
}

type kind int

const (
	kindConfirmation kind = iota
	kindFailure
	kindReminder
)

func (n *Notifier) allowed(ctx context.Context, k kind) (bool, error) {
	if n.Mailer == nil {
		return false, nil
	}
	s, err := n.Settings.Get(ctx)
	if err != nil {
		return false, errors.Wrap(err, "load notification settings")
	}
	ns := s.Notifications
	if !ns.Enabled {
		return false, nil
	}
	switch k {
	case kindConfirmation:
		return ns.EmailOnBookingSuccess, nil
	case kindFailure:
		return ns.EmailOnBookingFailure, nil
	case kindReminder:
		return ns.EmailReminderEnabled, nil
	}
	return false, nil
}

func (n *Notifier) deliver(ctx context.Context, k kind, to, subject, body string) (bool, error) {
	if strings.TrimSpace(to) == "" {
		return false, nil
	}
	ok, err := n.allowed(ctx, k)
	if err != nil || !ok {
		return false, err
	}
	if err := n.Mailer.Send(ctx, to, subject, body); err != nil {
		n.Log.Error("email failed", "to", to, "subject", subject, "error", err)
		return false, err
	}
	n.Log.Info("email sent", "to", to, "subject", subject)
	return true, nil
}

func (n *Notifier) SendBookingConfirmation(ctx context.Context, a teetime.BookingAttempt, to string) (bool, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Your tee time at %s is confirmed.\n\n", n.Facility)
	n.writeDetails(ctx, &b, a)
	if a.ConfirmationNumber != "" {
		fmt.Fprintf(&b, "Confirmation number: %s\n", a.ConfirmationNumber)
	}
	return n.deliver(ctx, kindConfirmation, to, "Tee Time Confirmation - "+n.Facility, b.String())
}

func (n *Notifier) SendBookingFailure(ctx context.Context, a teetime.BookingAttempt, reason, to string) (bool, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "We were unable to book a tee time at %s.\n\n", n.Facility)
	n.writeDetails(ctx, &b, a)
	fmt.Fprintf(&b, "Reason: %s\n", reason)
	return n.deliver(ctx, kindFailure, to, "Tee Time Booking Failed - "+n.Facility, b.String())
}

func (n *Notifier) SendTeeTimeReminder(ctx context.Context, a teetime.BookingAttempt, to string) (bool, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "This is a reminder of your upcoming tee time at %s.\n\n", n.Facility)
	n.writeDetails(ctx, &b, a)
	if a.ConfirmationNumber != "" {
		fmt.Fprintf(&b, "Confirmation number: %s\n", a.ConfirmationNumber)
	}
	return n.deliver(ctx, kindReminder, to, "Tee Time Reminder - "+n.Facility, b.String())
}

func (n *Notifier) writeDetails(ctx context.Context, b *strings.Builder, a teetime.BookingAttempt) {
	if a.Date != "" && a.Time24 != "" {
		if at, err := a.TeeTime(n.Location); err == nil {
			fmt.Fprintf(b, "Date: %s\n", at.Format("Monday, January 2, 2006"))
			fmt.Fprintf(b, "Time: %s\n", at.Format("3:04 PM"))
		}
	}
	if names := n.playerNames(ctx, a.PlayerIDs); len(names) > 0 {
		fmt.Fprintf(b, "Players: %s\n", strings.Join(names, ", "))
	}
	cart := "No"
	if a.UseCart {
		cart = "Yes"
	}
	fmt.Fprintf(b, "Cart: %s\n", cart)
	if a.Price != nil {
		fmt.Fprintf(b, "Price: $%.2f\n", *a.Price)
	}
}

func (n *Notifier) playerNames(ctx context.Context, ids []string) []string {
	if n.Players == nil {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if p, err := n.Players.Get(ctx, id); err == nil {
			out = append(out, p.Name)
		}
	}
	return out
}
