// Package memory holds process-local stores used for development
// (STORE_DRIVER=memory) and tests. Every method takes the store lock, so each
// write is atomic per record.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/example/teetime-scheduler/internal/db"
	"github.com/example/teetime-scheduler/internal/domain/player"
	"github.com/example/teetime-scheduler/internal/domain/settings"
	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/domain/user"
)

var now = func() time.Time { return time.Now().UTC() }

type PlayerStore struct {
	mu      sync.RWMutex
	players map[string]player.Player
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{players: map[string]player.Player{}}
}

func (s *PlayerStore) List(ctx context.Context) ([]player.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(player.Player) bool { return true }), nil
}

func (s *PlayerStore) sorted(keep func(player.Player) bool) []player.Player {
	out := make([]player.Player, 0, len(s.players))
	for _, p := range s.players {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *PlayerStore) Get(ctx context.Context, id string) (player.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return player.Player{}, db.ErrNotFound
	}
	return p, nil
}

func (s *PlayerStore) Create(ctx context.Context, p player.Player) (player.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, exists := s.players[p.ID]; exists {
		return player.Player{}, errors.Newf("player %s already exists", p.ID)
	}
	// strictly increasing so List keeps insertion order
	t := now()
	for _, existing := range s.players {
		if !t.After(existing.CreatedAt) {
			t = existing.CreatedAt.Add(time.Microsecond)
		}
	}
	p.CreatedAt, p.UpdatedAt = t, t
	s.players[p.ID] = p
	return p, nil
}

func (s *PlayerStore) Update(ctx context.Context, p player.Player) (player.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.players[p.ID]
	if !ok {
		return player.Player{}, db.ErrNotFound
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = now()
	s.players[p.ID] = p
	return p, nil
}

func (s *PlayerStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.players, id)
	return nil
}

func (s *PlayerStore) SearchByName(ctx context.Context, query string) ([]player.Player, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(p player.Player) bool {
		return strings.Contains(strings.ToLower(p.Name), q)
	}), nil
}

type BookingStore struct {
	mu       sync.RWMutex
	bookings map[string]teetime.BookingAttempt
	loc      *time.Location
}

// NewBookingStore returns an empty store that splits upcoming and past
// bookings using tee times in loc.
func NewBookingStore(loc *time.Location) *BookingStore {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingStore{bookings: map[string]teetime.BookingAttempt{}, loc: loc}
}

func (s *BookingStore) Create(ctx context.Context, a teetime.BookingAttempt) (teetime.BookingAttempt, error) {
	if !a.Status.Terminal() {
		return teetime.BookingAttempt{}, errors.Newf("refusing to store %s booking attempt", a.Status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	t := now()
	a.CreatedAt, a.UpdatedAt = t, t
	s.bookings[a.ID] = a
	return a, nil
}

func (s *BookingStore) Get(ctx context.Context, id string) (teetime.BookingAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.bookings[id]
	if !ok {
		return teetime.BookingAttempt{}, db.ErrNotFound
	}
	return a, nil
}

func (s *BookingStore) List(ctx context.Context) ([]teetime.BookingAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.filter(func(teetime.BookingAttempt) bool { return true })
	// newest tee time first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *BookingStore) ListUpcoming(ctx context.Context, at time.Time) ([]teetime.BookingAttempt, error) {
	day, clock := splitNow(at, s.loc)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(a teetime.BookingAttempt) bool {
		return a.Status == teetime.StatusConfirmed && (a.Date > day || (a.Date == day && a.Time24 >= clock))
	}), nil
}

func (s *BookingStore) ListPast(ctx context.Context, at time.Time) ([]teetime.BookingAttempt, error) {
	day, clock := splitNow(at, s.loc)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.filter(func(a teetime.BookingAttempt) bool {
		return a.Status == teetime.StatusConfirmed && (a.Date < day || (a.Date == day && a.Time24 < clock))
	})
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// filter returns matching bookings ordered by tee date and time.
func (s *BookingStore) filter(keep func(teetime.BookingAttempt) bool) []teetime.BookingAttempt {
	out := make([]teetime.BookingAttempt, 0, len(s.bookings))
	for _, a := range s.bookings {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time24 != out[j].Time24 {
			return out[i].Time24 < out[j].Time24
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *BookingStore) Update(ctx context.Context, a teetime.BookingAttempt) (teetime.BookingAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.bookings[a.ID]
	if !ok {
		return teetime.BookingAttempt{}, db.ErrNotFound
	}
	a.CreatedAt = cur.CreatedAt
	a.UpdatedAt = now()
	s.bookings[a.ID] = a
	return a, nil
}

func (s *BookingStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

func (s *BookingStore) MarkReminderSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.bookings[id]
	if !ok {
		return db.ErrNotFound
	}
	a.ReminderSent = true
	a.UpdatedAt = now()
	s.bookings[id] = a
	return nil
}

func splitNow(at time.Time, loc *time.Location) (string, string) {
	local := at.In(loc)
	return local.Format(teetime.DateLayout), local.Format("15:04")
}

type SettingsStore struct {
	mu  sync.Mutex
	cur settings.Settings
}

func NewSettingsStore(seed settings.Settings) *SettingsStore {
	seed.UpdatedAt = now()
	return &SettingsStore{cur: seed}
}

func (s *SettingsStore) Get(ctx context.Context) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur, nil
}

func (s *SettingsStore) Update(ctx context.Context, fn func(*settings.Settings) error) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur
	if err := fn(&next); err != nil {
		return settings.Settings{}, err
	}
	if err := next.Validate(); err != nil {
		return settings.Settings{}, err
	}
	next.UpdatedAt = now()
	s.cur = next
	return next, nil
}

type UserStore struct {
	mu    sync.RWMutex
	users map[string]user.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[string]user.User{}}
}

func (s *UserStore) Create(ctx context.Context, u user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.Username]; exists {
		return errors.Newf("user %q already exists", u.Username)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now()
	}
	s.users[u.Username] = u
	return nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return user.User{}, db.ErrNotFound
	}
	return u, nil
}
