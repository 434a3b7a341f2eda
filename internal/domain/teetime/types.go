package teetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// RawSlot is a schedule row exactly as the booking surface rendered it.
type RawSlot struct {
	TimeLabel string
	SpotsText string
	PriceText string
	Handle    string
}

// Candidate is a normalized open slot. Candidates are produced fresh by every
// probe and never cached across runs.
type Candidate struct {
	DisplayTime    string   `json:"displayTime"`
	Time24         string   `json:"time24"`
	AvailableSpots int      `json:"availableSpots"`
	Price          *float64 `json:"price"`
	BookingHandle  string   `json:"bookingHandle,omitempty"`
}

// Minutes returns the candidate's time of day in minutes after midnight, or
// -1 when Time24 is malformed.
func (c Candidate) Minutes() int {
	m, err := ParseClock(c.Time24)
	if err != nil {
		return -1
	}
	return m
}

type Credentials struct {
	Username string
	Password string
}

func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.Username) != "" && c.Password != ""
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

func (s Status) Terminal() bool { return s == StatusConfirmed || s == StatusFailed }

// Stage is a step of the reservation sequence. Stages only move forward.
type Stage int

const (
	StageStart Stage = iota
	StageAuthenticated
	StageSlotSelected
	StagePlayersFilled
	StageSubmitted
	StageConfirmed
	StageFailed
)

var stageNames = [...]string{"start", "authenticated", "slot_selected", "players_filled", "submitted", "confirmed", "failed"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// BookingAttempt is one attempt to reserve a candidate for a set of players.
// It is persisted only after it reaches a terminal status.
type BookingAttempt struct {
	ID                 string    `json:"id"`
	Date               string    `json:"date"`
	Time24             string    `json:"time"`
	PlayerIDs          []string  `json:"players"`
	UseCart            bool      `json:"useCart"`
	Price              *float64  `json:"price"`
	Status             Status    `json:"status"`
	ConfirmationNumber string    `json:"confirmationNumber,omitempty"`
	FailureReason      string    `json:"failureReason,omitempty"`
	Stages             []Stage   `json:"stages,omitempty"`
	Notes              string    `json:"notes,omitempty"`
	ReminderSent       bool      `json:"reminderSent"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// NewAttempt returns a pending attempt positioned at StageStart.
func NewAttempt(date, time24 string, playerIDs []string, useCart bool) BookingAttempt {
	return BookingAttempt{
		Date:      date,
		Time24:    time24,
		PlayerIDs: append([]string(nil), playerIDs...),
		UseCart:   useCart,
		Status:    StatusPending,
		Stages:    []Stage{StageStart},
	}
}

// Stage returns the most recent stage reached.
func (a *BookingAttempt) Stage() Stage {
	if len(a.Stages) == 0 {
		return StageStart
	}
	return a.Stages[len(a.Stages)-1]
}

// Advance moves the attempt to next. Only the immediate successor is
// accepted, except StageFailed which may follow any non-terminal stage.
func (a *BookingAttempt) Advance(next Stage) error {
	cur := a.Stage()
	if a.Status.Terminal() {
		return errors.Newf("attempt already %s", a.Status)
	}
	switch {
	case next == StageFailed:
	case next == StageConfirmed && cur == StageSubmitted:
	case next != StageConfirmed && next == cur+1:
	default:
		return errors.Newf("invalid stage transition %s -> %s", cur, next)
	}
	a.Stages = append(a.Stages, next)
	return nil
}

func (a *BookingAttempt) Confirm(number string) error {
	if err := a.Advance(StageConfirmed); err != nil {
		return err
	}
	a.Status = StatusConfirmed
	a.ConfirmationNumber = number
	return nil
}

func (a *BookingAttempt) Fail(reason string) {
	if a.Status.Terminal() {
		return
	}
	a.Stages = append(a.Stages, StageFailed)
	a.Status = StatusFailed
	a.FailureReason = reason
}

// TeeTime returns the attempt's date and time combined in loc.
func (a BookingAttempt) TeeTime(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout+" 15:04", a.Date+" "+a.Time24, loc)
}

// ParseStage is the inverse of Stage.String.
func ParseStage(s string) (Stage, bool) {
	for i, name := range stageNames {
		if name == s {
			return Stage(i), true
		}
	}
	return 0, false
}
