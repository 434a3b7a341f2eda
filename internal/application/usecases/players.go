package usecases

import (
	"context"
	"strings"

	"github.com/example/teetime-scheduler/internal/domain/player"
	"github.com/example/teetime-scheduler/internal/platform/validation"
)

// PlayerService validates player records before they reach the store.
type PlayerService struct {
	Store player.Store
}

func normalizePlayer(p player.Player) player.Player {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	return p
}

func (s PlayerService) List(ctx context.Context, query string) ([]player.Player, error) {
	if q := strings.TrimSpace(query); q != "" {
		return s.Store.SearchByName(ctx, q)
	}
	return s.Store.List(ctx)
}

func (s PlayerService) Get(ctx context.Context, id string) (player.Player, error) {
	return s.Store.Get(ctx, id)
}

func (s PlayerService) Create(ctx context.Context, p player.Player) (player.Player, error) {
	p = normalizePlayer(p)
	p.ID = ""
	if err := validation.Struct(p); err != nil {
		return player.Player{}, err
	}
	return s.Store.Create(ctx, p)
}

// Update replaces the editable fields of an existing player.
func (s PlayerService) Update(ctx context.Context, id string, in player.Player) (player.Player, error) {
	cur, err := s.Store.Get(ctx, id)
	if err != nil {
		return player.Player{}, err
	}
	in = normalizePlayer(in)
	cur.Name, cur.Email, cur.Phone = in.Name, in.Email, in.Phone
	if err := validation.Struct(cur); err != nil {
		return player.Player{}, err
	}
	return s.Store.Update(ctx, cur)
}

func (s PlayerService) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}
