package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/teetime-scheduler/internal/db"
	"github.com/example/teetime-scheduler/internal/domain/settings"
)

// SettingsRepo stores the single settings row as JSON. Seed is used when the
// row does not exist yet.
type SettingsRepo struct {
	db   *db.DB
	seed settings.Settings
}

func NewSettingsRepo(d *db.DB, seed settings.Settings) *SettingsRepo {
	return &SettingsRepo{db: d, seed: seed}
}

func decodeSettings(raw []byte, updated time.Time) (settings.Settings, error) {
	var s settings.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return settings.Settings{}, err
	}
	s.UpdatedAt = updated
	return s, nil
}

// Get returns the stored settings, inserting the seed on first use.
func (r *SettingsRepo) Get(ctx context.Context) (settings.Settings, error) {
	var (
		raw     []byte
		updated time.Time
	)
	err := r.db.QueryRow(ctx, `SELECT data, updated_at FROM settings WHERE id=1`).Scan(&raw, &updated)
	if db.IsNotFound(err) {
		return r.insertSeed(ctx)
	}
	if err != nil {
		return settings.Settings{}, db.WrapNotFound(err)
	}
	return decodeSettings(raw, updated)
}

func (r *SettingsRepo) insertSeed(ctx context.Context) (settings.Settings, error) {
	raw, err := json.Marshal(r.seed)
	if err != nil {
		return settings.Settings{}, err
	}
	if err := r.db.Exec(ctx, `INSERT INTO settings(id, data) VALUES (1, $1) ON CONFLICT (id) DO NOTHING`, raw); err != nil {
		return settings.Settings{}, err
	}
	var updated time.Time
	if err := r.db.QueryRow(ctx, `SELECT data, updated_at FROM settings WHERE id=1`).Scan(&raw, &updated); err != nil {
		return settings.Settings{}, db.WrapNotFound(err)
	}
	return decodeSettings(raw, updated)
}

// Update locks the row, applies fn, validates and writes the result in one
// transaction.
func (r *SettingsRepo) Update(ctx context.Context, fn func(*settings.Settings) error) (settings.Settings, error) {
	if _, err := r.Get(ctx); err != nil {
		return settings.Settings{}, err
	}

	var out settings.Settings
	err := r.db.InTx(ctx, func(tx db.TxExec) error {
		var (
			raw     []byte
			updated time.Time
		)
		if err := tx.QueryRow(ctx, `SELECT data, updated_at FROM settings WHERE id=1 FOR UPDATE`).Scan(&raw, &updated); err != nil {
			return db.WrapNotFound(err)
		}
		cur, err := decodeSettings(raw, updated)
		if err != nil {
			return err
		}
		if err := fn(&cur); err != nil {
			return err
		}
		if err := cur.Validate(); err != nil {
			return err
		}
		next, err := json.Marshal(cur)
		if err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `UPDATE settings SET data=$1, updated_at=now() WHERE id=1 RETURNING updated_at`, next).Scan(&cur.UpdatedAt); err != nil {
			return err
		}
		out = cur
		return nil
	})
	if err != nil {
		return settings.Settings{}, err
	}
	return out, nil
}
