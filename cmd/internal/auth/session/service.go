package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"mgltickets/cmd/security/token"
)

// Issued is the outcome of a login or a rotation.
//
// After a grace-window replay the refresh fields are zero: the caller gets a
// fresh access credential but keeps the refresh credential it already holds.
type Issued struct {
	SessionID        string
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Stats is a point-in-time census of the session table.
type Stats struct {
	ActiveSessions int `json:"active_sessions"`
}

// Service implements the session lifecycle: login creates a session, refresh
// rotates it, logout tears it down. All operations take the current time
// explicitly so tests can drive the clock.
type Service struct {
	store   Store
	codec   *Codec
	key     token.Key
	grace   time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

// NewService wires the session service.
func NewService(store Store, codec *Codec, cfg Config, logger *slog.Logger, metrics *Metrics) (*Service, error) {
	if store == nil || codec == nil {
		return nil, ErrConfig
	}
	key, err := token.NewKey([]byte(cfg.SigningKey))
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Service{
		store:   store,
		codec:   codec,
		key:     key,
		grace:   cfg.GraceWindow,
		logger:  logger,
		metrics: metrics,
	}, nil
}

func newSessionID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now.UTC()), ulid.DefaultEntropy()).String()
}

// Login creates a fresh session for userID and issues both credentials.
func (s *Service) Login(ctx context.Context, userID string, now time.Time) (Issued, error) {
	sid := newSessionID(now)

	refresh, refreshExp, err := s.codec.IssueRefresh(userID, sid, now)
	if err != nil {
		return Issued{}, err
	}
	access, accessExp, err := s.codec.IssueAccess(userID, now)
	if err != nil {
		return Issued{}, err
	}
	if err := s.store.Create(ctx, now, sid, userID, s.key.Fingerprint(refresh), refreshExp); err != nil {
		return Issued{}, err
	}

	s.metrics.LoginsTotal.Inc()
	s.logger.InfoContext(ctx, "session created", "sid", sid, "user_id", userID)

	return Issued{
		SessionID:        sid,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh rotates the session behind refreshToken.
//
// The happy path creates a successor session, then revokes the predecessor
// pointing at it, so a crash between the two steps leaves a usable successor
// rather than a locked-out user. A revoked session presented again within the
// grace window, while its successor is still active, is treated as a benign
// concurrent refresh: the caller gets a new access credential and keeps its
// refresh credential. Outside the window the same presentation is treated as
// replay.
func (s *Service) Refresh(ctx context.Context, refreshToken string, now time.Time) (Issued, error) {
	claims, err := s.codec.Decode(refreshToken, now)
	if err != nil {
		return Issued{}, err
	}
	if claims.Kind != KindRefresh || claims.SessionID == "" {
		return Issued{}, ErrInvalidToken
	}

	row, err := s.store.Get(ctx, claims.SessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return Issued{}, ErrUnauthorized
	}
	if err != nil {
		return Issued{}, err
	}
	if row.UserID != claims.UserID {
		s.logger.WarnContext(ctx, "refresh user mismatch",
			"sid", row.SessionID, "user_id", row.UserID)
		return Issued{}, ErrUnauthorized
	}

	if !row.ExpiresAt.After(now) {
		if err := s.store.Delete(ctx, row.SessionID); err != nil {
			s.logger.WarnContext(ctx, "expired session delete failed",
				"sid", row.SessionID, "error", err)
		}
		return Issued{}, ErrSessionExpired
	}

	if row.RevokedAt != nil {
		if now.Sub(*row.RevokedAt) < s.grace && s.successorActive(ctx, row, now) {
			return s.graceAccess(ctx, row, now)
		}
		s.metrics.RevokedReplaysTotal.Inc()
		s.logger.ErrorContext(ctx, "revoked refresh credential replayed",
			"sid", row.SessionID, "user_id", row.UserID,
			"revoked_at", row.RevokedAt, "age", now.Sub(*row.RevokedAt).String())
		return Issued{}, ErrSessionRevoked
	}

	if !s.key.Matches(refreshToken, row.RefreshFingerprint) {
		s.logger.WarnContext(ctx, "refresh fingerprint mismatch",
			"sid", row.SessionID, "user_id", row.UserID)
		return Issued{}, ErrInvalidToken
	}

	return s.rotate(ctx, row, now)
}

func (s *Service) rotate(ctx context.Context, row Row, now time.Time) (Issued, error) {
	sid := newSessionID(now)

	refresh, refreshExp, err := s.codec.IssueRefresh(row.UserID, sid, now)
	if err != nil {
		return Issued{}, err
	}
	access, accessExp, err := s.codec.IssueAccess(row.UserID, now)
	if err != nil {
		return Issued{}, err
	}

	// Successor first, then revoke. The inverse order could strand the user
	// with every session revoked after a crash in between.
	if err := s.store.Create(ctx, now, sid, row.UserID, s.key.Fingerprint(refresh), refreshExp); err != nil {
		return Issued{}, err
	}
	if err := s.store.Revoke(ctx, now, row.SessionID, sid); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return Issued{}, err
	}

	s.metrics.RotationsTotal.Inc()
	s.logger.InfoContext(ctx, "session rotated",
		"sid", row.SessionID, "successor", sid, "user_id", row.UserID)

	return Issued{
		SessionID:        sid,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// successorActive reports whether the row's replacement resolves to a
// still-usable session. A revoked row with a dead successor gets no grace:
// the retry it would absorb has nothing valid to converge on.
func (s *Service) successorActive(ctx context.Context, row Row, now time.Time) bool {
	if row.ReplacedBy == nil {
		return false
	}
	succ, err := s.store.Get(ctx, *row.ReplacedBy)
	return err == nil && succ.Active(now)
}

func (s *Service) graceAccess(ctx context.Context, row Row, now time.Time) (Issued, error) {
	access, accessExp, err := s.codec.IssueAccess(row.UserID, now)
	if err != nil {
		return Issued{}, err
	}
	if err := s.store.Touch(ctx, now, row.SessionID); err != nil {
		s.logger.WarnContext(ctx, "session touch failed", "sid", row.SessionID, "error", err)
	}

	s.metrics.GraceReplaysTotal.Inc()
	s.logger.InfoContext(ctx, "concurrent refresh within grace window",
		"sid", row.SessionID, "user_id", row.UserID)

	return Issued{
		SessionID:       row.SessionID,
		AccessToken:     access,
		AccessExpiresAt: accessExp,
	}, nil
}

// Logout tears down the session behind refreshToken. Idempotent: a session
// already gone is a success.
func (s *Service) Logout(ctx context.Context, refreshToken string, now time.Time) error {
	claims, err := s.codec.Decode(refreshToken, now)
	if err != nil {
		return err
	}
	if claims.Kind != KindRefresh || claims.SessionID == "" {
		return ErrInvalidToken
	}
	if err := s.store.Delete(ctx, claims.SessionID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "session ended", "sid", claims.SessionID, "user_id", claims.UserID)
	return nil
}

// LogoutAll tears down every session owned by userID and reports how many.
func (s *Service) LogoutAll(ctx context.Context, userID string) (int, error) {
	n, err := s.store.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "all sessions ended", "user_id", userID, "count", n)
	return n, nil
}

// VerifyAccess validates an access credential and returns its claims.
// Refresh credentials are rejected: they never authorize API calls.
func (s *Service) VerifyAccess(tokenStr string, now time.Time) (Claims, error) {
	claims, err := s.codec.Decode(tokenStr, now)
	if err != nil {
		return Claims{}, err
	}
	if claims.Kind == KindRefresh {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// StatsForUser counts the caller's active sessions.
func (s *Service) StatsForUser(ctx context.Context, userID string, now time.Time) (Stats, error) {
	n, err := s.store.CountActiveForUser(ctx, now, userID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{ActiveSessions: n}, nil
}

// StatsGlobal counts active sessions across all users.
func (s *Service) StatsGlobal(ctx context.Context, now time.Time) (Stats, error) {
	n, err := s.store.CountActive(ctx, now)
	if err != nil {
		return Stats{}, err
	}
	return Stats{ActiveSessions: n}, nil
}
