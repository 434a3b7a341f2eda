package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/example/teetime-scheduler/internal/db"
	"github.com/example/teetime-scheduler/internal/domain/teetime"
)

const bookingColumns = `id, tee_date, tee_time, player_ids, use_cart, price, status, confirmation_number, failure_reason, stages, notes, reminder_sent, created_at, updated_at`

type BookingRepo struct {
	db  *db.DB
	loc *time.Location
}

// NewBookingRepo returns a repo that splits upcoming and past bookings using
// tee times in loc.
func NewBookingRepo(d *db.DB, loc *time.Location) *BookingRepo {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingRepo{db: d, loc: loc}
}

func scanBooking(row db.Row) (teetime.BookingAttempt, error) {
	var (
		a      teetime.BookingAttempt
		date   time.Time
		status string
		stages []string
	)
	err := row.Scan(&a.ID, &date, &a.Time24, &a.PlayerIDs, &a.UseCart, &a.Price, &status,
		&a.ConfirmationNumber, &a.FailureReason, &stages, &a.Notes, &a.ReminderSent, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return teetime.BookingAttempt{}, err
	}
	a.Date = date.Format(teetime.DateLayout)
	a.Status = teetime.Status(status)
	for _, s := range stages {
		if st, ok := teetime.ParseStage(s); ok {
			a.Stages = append(a.Stages, st)
		}
	}
	return a, nil
}

func stageNames(stages []teetime.Stage) []string {
	out := make([]string, 0, len(stages))
	for _, s := range stages {
		out = append(out, s.String())
	}
	return out
}

func (r *BookingRepo) list(ctx context.Context, where, order string, args ...any) ([]teetime.BookingAttempt, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings `+where+` ORDER BY `+order, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []teetime.BookingAttempt
	for rows.Next() {
		a, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *BookingRepo) Create(ctx context.Context, a teetime.BookingAttempt) (teetime.BookingAttempt, error) {
	if !a.Status.Terminal() {
		return teetime.BookingAttempt{}, errors.Newf("refusing to store %s booking attempt", a.Status)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.PlayerIDs == nil {
		a.PlayerIDs = []string{}
	}
	out, err := scanBooking(r.db.QueryRow(ctx, `
INSERT INTO bookings(id, tee_date, tee_time, player_ids, use_cart, price, status, confirmation_number, failure_reason, stages, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING `+bookingColumns,
		a.ID, a.Date, a.Time24, a.PlayerIDs, a.UseCart, a.Price, string(a.Status),
		a.ConfirmationNumber, a.FailureReason, stageNames(a.Stages), a.Notes))
	if err != nil {
		return teetime.BookingAttempt{}, db.WrapNotFound(err)
	}
	return out, nil
}

func (r *BookingRepo) Get(ctx context.Context, id string) (teetime.BookingAttempt, error) {
	a, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		return teetime.BookingAttempt{}, db.WrapNotFound(err)
	}
	return a, nil
}

func (r *BookingRepo) List(ctx context.Context) ([]teetime.BookingAttempt, error) {
	return r.list(ctx, "", "tee_date DESC, tee_time DESC, created_at DESC")
}

func (r *BookingRepo) ListUpcoming(ctx context.Context, now time.Time) ([]teetime.BookingAttempt, error) {
	local := now.In(r.loc)
	return r.list(ctx,
		`WHERE status='confirmed' AND (tee_date > $1::date OR (tee_date = $1::date AND tee_time >= $2))`,
		"tee_date ASC, tee_time ASC",
		local.Format(teetime.DateLayout), local.Format("15:04"))
}

func (r *BookingRepo) ListPast(ctx context.Context, now time.Time) ([]teetime.BookingAttempt, error) {
	local := now.In(r.loc)
	return r.list(ctx,
		`WHERE status='confirmed' AND (tee_date < $1::date OR (tee_date = $1::date AND tee_time < $2))`,
		"tee_date DESC, tee_time DESC",
		local.Format(teetime.DateLayout), local.Format("15:04"))
}

func (r *BookingRepo) Update(ctx context.Context, a teetime.BookingAttempt) (teetime.BookingAttempt, error) {
	out, err := scanBooking(r.db.QueryRow(ctx, `
UPDATE bookings SET tee_date=$2, tee_time=$3, player_ids=$4, use_cart=$5, price=$6, status=$7,
	confirmation_number=$8, failure_reason=$9, notes=$10, reminder_sent=$11, updated_at=now()
WHERE id=$1
RETURNING `+bookingColumns,
		a.ID, a.Date, a.Time24, a.PlayerIDs, a.UseCart, a.Price, string(a.Status),
		a.ConfirmationNumber, a.FailureReason, a.Notes, a.ReminderSent))
	if err != nil {
		return teetime.BookingAttempt{}, db.WrapNotFound(err)
	}
	return out, nil
}

func (r *BookingRepo) Delete(ctx context.Context, id string) error {
	n, err := r.db.ExecRows(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *BookingRepo) MarkReminderSent(ctx context.Context, id string) error {
	n, err := r.db.ExecRows(ctx, `UPDATE bookings SET reminder_sent=true, updated_at=now() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}
