package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var pgIdentRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PostgresStore persists sessions in the refresh_sessions table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption customizes a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithSchema overrides the default "mgl" schema.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) {
		s.schema = schema
	}
}

// NewPostgresStore wires a session store over an existing pool.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("session: nil pgx pool")
	}
	s := &PostgresStore{pool: pool, schema: "mgl"}
	for _, opt := range opts {
		opt(s)
	}
	if !pgIdentRe.MatchString(s.schema) {
		return nil, fmt.Errorf("session: invalid schema name %q", s.schema)
	}
	return s, nil
}

func (s *PostgresStore) table() string {
	return fmt.Sprintf("%q.refresh_sessions", s.schema)
}

const rowColumns = `sid, user_id, refresh_fingerprint, created_at, last_used_at, expires_at, revoked_at, replaced_by_sid`

func (s *PostgresStore) Create(ctx context.Context, now time.Time, sessionID, userID, fingerprint string, expiresAt time.Time) error {
	q := fmt.Sprintf(`
		INSERT INTO %s (sid, user_id, refresh_fingerprint, created_at, last_used_at, expires_at)
		VALUES ($1, $2, $3, $4, $4, $5)`, s.table())
	_, err := s.pool.Exec(ctx, q, sessionID, userID, fingerprint, now.UTC(), expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("session: create %s: %w", sessionID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, sessionID string) (Row, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE sid = $1`, rowColumns, s.table())
	return s.scanRow(s.pool.QueryRow(ctx, q, sessionID))
}

func (s *PostgresStore) Revoke(ctx context.Context, now time.Time, sessionID, replacedBy string) error {
	q := fmt.Sprintf(`
		UPDATE %s SET revoked_at = $2, last_used_at = $2, replaced_by_sid = $3
		WHERE sid = $1 AND revoked_at IS NULL`, s.table())
	tag, err := s.pool.Exec(ctx, q, sessionID, now.UTC(), replacedBy)
	if err != nil {
		return fmt.Errorf("session: revoke %s: %w", sessionID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PostgresStore) Touch(ctx context.Context, now time.Time, sessionID string) error {
	q := fmt.Sprintf(`UPDATE %s SET last_used_at = $2 WHERE sid = $1`, s.table())
	if _, err := s.pool.Exec(ctx, q, sessionID, now.UTC()); err != nil {
		return fmt.Errorf("session: touch %s: %w", sessionID, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE sid = $1`, s.table())
	if _, err := s.pool.Exec(ctx, q, sessionID); err != nil {
		return fmt.Errorf("session: delete %s: %w", sessionID, err)
	}
	return nil
}

func (s *PostgresStore) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, s.table())
	tag, err := s.pool.Exec(ctx, q, userID)
	if err != nil {
		return 0, fmt.Errorf("session: delete all for user: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) CountActive(ctx context.Context, now time.Time) (int, error) {
	q := fmt.Sprintf(`
		SELECT count(*) FROM %s
		WHERE revoked_at IS NULL AND expires_at > $1`, s.table())
	var n int
	if err := s.pool.QueryRow(ctx, q, now.UTC()).Scan(&n); err != nil {
		return 0, fmt.Errorf("session: count active: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountActiveForUser(ctx context.Context, now time.Time, userID string) (int, error) {
	q := fmt.Sprintf(`
		SELECT count(*) FROM %s
		WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2`, s.table())
	var n int
	if err := s.pool.QueryRow(ctx, q, userID, now.UTC()).Scan(&n); err != nil {
		return 0, fmt.Errorf("session: count active for user: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Sweep(ctx context.Context, now time.Time, retention time.Duration) (int, error) {
	cutoff := now.Add(-retention).UTC()
	q := fmt.Sprintf(`
		DELETE FROM %s
		WHERE (revoked_at IS NOT NULL AND revoked_at < $1)
		   OR (revoked_at IS NULL AND expires_at < $1)`, s.table())
	tag, err := s.pool.Exec(ctx, q, cutoff)
	if err != nil {
		return 0, fmt.Errorf("session: sweep: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) scanRow(row pgx.Row) (Row, error) {
	var r Row
	err := row.Scan(
		&r.SessionID,
		&r.UserID,
		&r.RefreshFingerprint,
		&r.CreatedAt,
		&r.LastUsedAt,
		&r.ExpiresAt,
		&r.RevokedAt,
		&r.ReplacedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Row{}, ErrSessionNotFound
		}
		return Row{}, fmt.Errorf("session: scan row: %w", err)
	}
	return r, nil
}
