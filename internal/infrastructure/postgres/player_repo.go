package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/example/teetime-scheduler/internal/db"
	"github.com/example/teetime-scheduler/internal/domain/player"
)

const playerColumns = `id, name, email, phone, created_at, updated_at`

type PlayerRepo struct{ db *db.DB }

func NewPlayerRepo(d *db.DB) *PlayerRepo { return &PlayerRepo{db: d} }

func scanPlayer(row db.Row) (player.Player, error) {
	var p player.Player
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PlayerRepo) list(ctx context.Context, where string, args ...any) ([]player.Player, error) {
	rows, err := r.db.Query(ctx, `SELECT `+playerColumns+` FROM players `+where+` ORDER BY created_at ASC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []player.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PlayerRepo) List(ctx context.Context) ([]player.Player, error) {
	return r.list(ctx, "")
}

func (r *PlayerRepo) SearchByName(ctx context.Context, query string) ([]player.Player, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.TrimSpace(query))
	return r.list(ctx, `WHERE name ILIKE $1`, "%"+escaped+"%")
}

func (r *PlayerRepo) Get(ctx context.Context, id string) (player.Player, error) {
	p, err := scanPlayer(r.db.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id=$1`, id))
	if err != nil {
		return player.Player{}, db.WrapNotFound(err)
	}
	return p, nil
}

func (r *PlayerRepo) Create(ctx context.Context, p player.Player) (player.Player, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	out, err := scanPlayer(r.db.QueryRow(ctx, `
INSERT INTO players(id, name, email, phone)
VALUES ($1,$2,$3,$4)
RETURNING `+playerColumns, p.ID, p.Name, p.Email, p.Phone))
	if err != nil {
		return player.Player{}, db.WrapNotFound(err)
	}
	return out, nil
}

func (r *PlayerRepo) Update(ctx context.Context, p player.Player) (player.Player, error) {
	out, err := scanPlayer(r.db.QueryRow(ctx, `
UPDATE players SET name=$2, email=$3, phone=$4, updated_at=now()
WHERE id=$1
RETURNING `+playerColumns, p.ID, p.Name, p.Email, p.Phone))
	if err != nil {
		return player.Player{}, db.WrapNotFound(err)
	}
	return out, nil
}

func (r *PlayerRepo) Delete(ctx context.Context, id string) error {
	n, err := r.db.ExecRows(ctx, `DELETE FROM players WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}
