// Package teetimetest provides an in-memory booking surface for tests.
package teetimetest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/teetime-scheduler/internal/domain/player"
	"github.com/example/teetime-scheduler/internal/domain/teetime"
)

// Surface is a scriptable teetime.Surface. Zero value serves an empty
// schedule and confirms every submission.
type Surface struct {
	mu sync.Mutex

	Slots        []teetime.RawSlot
	ListErr      error
	OpenErr      error
	AuthErr      error
	SelectErr    error
	FillErr      error
	SubmitErr    error
	Outcome      *teetime.Outcome
	PanicOnFill  bool
	BlockListing chan struct{}

	opened  atomic.Int32
	closed  atomic.Int32
	active  atomic.Int32
	maxLive atomic.Int32

	Calls     []string
	Filled    []player.Player
	UsedCart  bool
	Selected  teetime.Candidate
	Creds     teetime.Credentials
	ListDates []time.Time
}

func (s *Surface) Open(ctx context.Context) (teetime.Session, error) {
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	s.opened.Add(1)
	n := s.active.Add(1)
	for {
		m := s.maxLive.Load()
		if n <= m || s.maxLive.CompareAndSwap(m, n) {
			break
		}
	}
	s.record("open")
	return &session{s: s}, nil
}

// Opened is the number of sessions opened so far.
func (s *Surface) Opened() int { return int(s.opened.Load()) }

// Closed is the number of sessions closed so far.
func (s *Surface) Closed() int { return int(s.closed.Load()) }

// MaxConcurrent is the highest number of sessions that were open at once.
func (s *Surface) MaxConcurrent() int { return int(s.maxLive.Load()) }

// CallLog returns a copy of the recorded call names.
func (s *Surface) CallLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Calls...)
}

func (s *Surface) record(call string) {
	s.mu.Lock()
	s.Calls = append(s.Calls, call)
	s.mu.Unlock()
}

type session struct {
	s      *Surface
	closed atomic.Bool
}

func (ss *session) ListSlots(ctx context.Context, date time.Time) ([]teetime.RawSlot, error) {
	ss.s.record("list")
	ss.s.mu.Lock()
	ss.s.ListDates = append(ss.s.ListDates, date)
	ss.s.mu.Unlock()
	if ss.s.BlockListing != nil {
		select {
		case <-ss.s.BlockListing:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if ss.s.ListErr != nil {
		return nil, ss.s.ListErr
	}
	return append([]teetime.RawSlot(nil), ss.s.Slots...), nil
}

func (ss *session) Authenticate(ctx context.Context, creds teetime.Credentials) error {
	ss.s.record("auth")
	ss.s.mu.Lock()
	ss.s.Creds = creds
	ss.s.mu.Unlock()
	return ss.s.AuthErr
}

func (ss *session) SelectSlot(ctx context.Context, date time.Time, c teetime.Candidate) error {
	ss.s.record("select")
	ss.s.mu.Lock()
	ss.s.Selected = c
	ss.s.mu.Unlock()
	return ss.s.SelectErr
}

func (ss *session) FillPlayers(ctx context.Context, players []player.Player, useCart bool) error {
	ss.s.record("fill")
	if ss.s.PanicOnFill {
		panic("fill exploded")
	}
	ss.s.mu.Lock()
	ss.s.Filled = append([]player.Player(nil), players...)
	ss.s.UsedCart = useCart
	ss.s.mu.Unlock()
	return ss.s.FillErr
}

func (ss *session) Submit(ctx context.Context) (teetime.Outcome, error) {
	ss.s.record("submit")
	if ss.s.SubmitErr != nil {
		return teetime.Outcome{}, ss.s.SubmitErr
	}
	if ss.s.Outcome != nil {
		return *ss.s.Outcome, nil
	}
	return teetime.Outcome{Confirmed: true, ConfirmationNumber: "CONF-1"}, nil
}

func (ss *session) Close() error {
	if ss.closed.CompareAndSwap(false, true) {
		ss.s.closed.Add(1)
		ss.s.active.Add(-1)
		ss.s.record("close")
	}
	return nil
}
