package settings

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/spf13/cast"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, key string) (string, error) {
	var val string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key=$1", key).Scan(&val)
	return val, err
}

func (r *Repository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, time.Now().UTC())
	return err
}

// Bool reads a boolean setting, returning def when it is unset or not a
// boolean.
func (r *Repository) Bool(ctx context.Context, key string, def bool) bool {
	val, err := r.Get(ctx, key)
	if err != nil {
		return def
	}
	b, err := cast.ToBoolE(val)
	if err != nil {
		return def
	}
	return b
}

func (r *Repository) GetAll(ctx context.Context) ([]Setting, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT key, value, updated_at FROM settings ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM settings WHERE key=$1", key)
	return err
}

// IsNotFound reports whether err is a missing setting.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
