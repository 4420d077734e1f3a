package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const userColumns = `id, name, email, password_hash, level, is_admin, email_verified_at, created_at, updated_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, u *User) error {
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Level == "" {
		u.Level = LevelUser
	}
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Level, u.IsAdmin,
		u.EmailVerifiedAt, u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=$1", id)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=$1", email)
}

func (r *Repository) getOne(ctx context.Context, query string, arg any) (*User, error) {
	u := &User{}
	var verified sql.NullTime
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Level, &u.IsAdmin,
		&verified, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if verified.Valid {
		t := verified.Time
		u.EmailVerifiedAt = &t
	}
	return u, nil
}

func (r *Repository) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.update(ctx, id, "UPDATE users SET password_hash=$1, updated_at=$2 WHERE id=$3", hash, time.Now().UTC(), id)
}

func (r *Repository) MarkEmailVerified(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return r.update(ctx, id, "UPDATE users SET email_verified_at=$1, updated_at=$2 WHERE id=$3 AND email_verified_at IS NULL", now, now, id)
}

// update runs query against the user id. Placeholders are numbered in order
// of appearance, which SQLite requires for $N parameters.
func (r *Repository) update(ctx context.Context, id, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// already verified users land here too; only a missing row is an error
		var exists bool
		if err := r.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)", id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
