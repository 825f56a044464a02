package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session rows in Redis hashes. Each session lives at
// sess:{sid}; an index set per user (user_sessions:{uid}) and a global
// index (sessions) make user-scoped and sweep scans cheap.
//
// Rows carry no Redis TTL: the sweeper owns retention so revoked rows
// stay visible for the grace window exactly as they do in Postgres.
type RedisStore struct {
	rdb redis.UniversalClient
}

// NewRedisStore wires a session store over an existing client.
func NewRedisStore(rdb redis.UniversalClient) (*RedisStore, error) {
	if rdb == nil {
		return nil, errors.New("session: nil redis client")
	}
	return &RedisStore{rdb: rdb}, nil
}

func sessionKey(sid string) string  { return "sess:" + sid }
func userIndexKey(uid string) string { return "user_sessions:" + uid }

const globalIndexKey = "sessions"

func (s *RedisStore) Create(ctx context.Context, now time.Time, sessionID, userID, fingerprint string, expiresAt time.Time) error {
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, sessionKey(sessionID), map[string]any{
		"user_id":             userID,
		"refresh_fingerprint": fingerprint,
		"created_at":          now.UTC().Format(time.RFC3339Nano),
		"last_used_at":        now.UTC().Format(time.RFC3339Nano),
		"expires_at":          expiresAt.UTC().Format(time.RFC3339Nano),
	})
	pipe.SAdd(ctx, userIndexKey(userID), sessionID)
	pipe.SAdd(ctx, globalIndexKey, sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: create %s: %w", sessionID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (Row, error) {
	m, err := s.rdb.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return Row{}, fmt.Errorf("session: get %s: %w", sessionID, err)
	}
	if len(m) == 0 {
		return Row{}, ErrSessionNotFound
	}
	return rowFromHash(sessionID, m)
}

func (s *RedisStore) Revoke(ctx context.Context, now time.Time, sessionID, replacedBy string) error {
	r, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if r.RevokedAt != nil {
		return ErrSessionNotFound
	}
	err = s.rdb.HSet(ctx, sessionKey(sessionID), map[string]any{
		"revoked_at":      now.UTC().Format(time.RFC3339Nano),
		"last_used_at":    now.UTC().Format(time.RFC3339Nano),
		"replaced_by_sid": replacedBy,
	}).Err()
	if err != nil {
		return fmt.Errorf("session: revoke %s: %w", sessionID, err)
	}
	return nil
}

func (s *RedisStore) Touch(ctx context.Context, now time.Time, sessionID string) error {
	n, err := s.rdb.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil || n == 0 {
		return err
	}
	err = s.rdb.HSet(ctx, sessionKey(sessionID), "last_used_at", now.UTC().Format(time.RFC3339Nano)).Err()
	if err != nil {
		return fmt.Errorf("session: touch %s: %w", sessionID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	uid, err := s.rdb.HGet(ctx, sessionKey(sessionID), "user_id").Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: delete %s: %w", sessionID, err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, userIndexKey(uid), sessionID)
	pipe.SRem(ctx, globalIndexKey, sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: delete %s: %w", sessionID, err)
	}
	return nil
}

func (s *RedisStore) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	sids, err := s.rdb.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("session: delete all for user: %w", err)
	}
	for _, sid := range sids {
		if err := s.Delete(ctx, sid); err != nil {
			return 0, err
		}
	}
	return len(sids), nil
}

func (s *RedisStore) CountActive(ctx context.Context, now time.Time) (int, error) {
	return s.countActive(ctx, now, globalIndexKey, "")
}

func (s *RedisStore) CountActiveForUser(ctx context.Context, now time.Time, userID string) (int, error) {
	return s.countActive(ctx, now, userIndexKey(userID), userID)
}

func (s *RedisStore) countActive(ctx context.Context, now time.Time, indexKey, userID string) (int, error) {
	sids, err := s.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("session: count active: %w", err)
	}
	n := 0
	for _, sid := range sids {
		r, err := s.Get(ctx, sid)
		if errors.Is(err, ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if userID != "" && r.UserID != userID {
			continue
		}
		if r.Active(now) {
			n++
		}
	}
	return n, nil
}

func (s *RedisStore) Sweep(ctx context.Context, now time.Time, retention time.Duration) (int, error) {
	cutoff := now.Add(-retention)
	sids, err := s.rdb.SMembers(ctx, globalIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("session: sweep: %w", err)
	}
	n := 0
	for _, sid := range sids {
		r, err := s.Get(ctx, sid)
		if errors.Is(err, ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		dead := (r.RevokedAt != nil && r.RevokedAt.Before(cutoff)) ||
			(r.RevokedAt == nil && r.ExpiresAt.Before(cutoff))
		if !dead {
			continue
		}
		if err := s.Delete(ctx, sid); err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

func rowFromHash(sid string, m map[string]string) (Row, error) {
	r := Row{SessionID: sid, UserID: m["user_id"], RefreshFingerprint: m["refresh_fingerprint"]}
	var err error
	if r.CreatedAt, err = parseHashTime(m["created_at"]); err != nil {
		return Row{}, fmt.Errorf("session: row %s created_at: %w", sid, err)
	}
	if r.LastUsedAt, err = parseHashTime(m["last_used_at"]); err != nil {
		return Row{}, fmt.Errorf("session: row %s last_used_at: %w", sid, err)
	}
	if r.ExpiresAt, err = parseHashTime(m["expires_at"]); err != nil {
		return Row{}, fmt.Errorf("session: row %s expires_at: %w", sid, err)
	}
	if v, ok := m["revoked_at"]; ok && v != "" {
		t, err := parseHashTime(v)
		if err != nil {
			return Row{}, fmt.Errorf("session: row %s revoked_at: %w", sid, err)
		}
		r.RevokedAt = &t
	}
	if v, ok := m["replaced_by_sid"]; ok && v != "" {
		r.ReplacedBy = &v
	}
	return r, nil
}

func parseHashTime(v string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v)
}
