package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLStore keeps sessions in the sessions table.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (st *SQLStore) Get(ctx context.Context, id string) (*Session, error) {
	var (
		userID  sql.NullString
		payload string
		exp     int64
	)
	s := &Session{ID: id}
	err := st.db.QueryRowContext(ctx,
		"SELECT user_id, is_admin, payload, expires_at FROM sessions WHERE token=$1", id,
	).Scan(&userID, &s.IsAdmin, &payload, &exp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	s.ExpiresAt = time.Unix(exp, 0)
	if time.Now().After(s.ExpiresAt) {
		_ = st.Delete(ctx, id)
		return nil, ErrSessionNotFound
	}
	s.UserID = userID.String
	if err := json.Unmarshal([]byte(payload), &s.Data); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return s, nil
}

func (st *SQLStore) Save(ctx context.Context, s *Session) error {
	payload, err := json.Marshal(s.Data)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	userID := sql.NullString{String: s.UserID, Valid: s.UserID != ""}
	_, err = st.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, is_admin, payload, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token) DO UPDATE SET
			user_id=excluded.user_id, is_admin=excluded.is_admin,
			payload=excluded.payload, expires_at=excluded.expires_at`,
		s.ID, userID, s.IsAdmin, string(payload), s.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (st *SQLStore) Delete(ctx context.Context, id string) error {
	_, err := st.db.ExecContext(ctx, "DELETE FROM sessions WHERE token=$1", id)
	return err
}

func (st *SQLStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := st.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id=$1", userID)
	return err
}

func (st *SQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := st.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < $1", time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return res.RowsAffected()
}
