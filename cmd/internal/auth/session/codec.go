package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// KindRefresh is the "kind" claim carried by refresh credentials.
// Access credentials carry no kind.
const KindRefresh = "refresh"

// Claims is the verified payload of an issued credential.
type Claims struct {
	UserID    string
	SessionID string
	Kind      string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Issuer    string
}

type jwtClaims struct {
	UID  string `json:"uid"`
	SID  string `json:"sid,omitempty"`
	Kind string `json:"kind,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies bearer credentials (HS256).
//
// Access tokens carry {uid, exp}; refresh tokens additionally carry the
// session id and kind=refresh so a rotation can be correlated to exactly one
// session row. The signing key is injected once at construction and never
// mutated.
type Codec struct {
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	key        []byte
}

// NewCodec builds a Codec from config.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.SigningKey == "" || cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, ErrConfig
	}
	return &Codec{
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		key:        []byte(cfg.SigningKey),
	}, nil
}

// IssueAccess signs a short-lived access credential for userID.
func (c *Codec) IssueAccess(userID string, now time.Time) (string, time.Time, error) {
	exp := now.Add(c.accessTTL)
	signed, err := c.sign(jwtClaims{
		UID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	return signed, exp, err
}

// IssueRefresh signs a long-lived refresh credential bound to sessionID.
func (c *Codec) IssueRefresh(userID, sessionID string, now time.Time) (string, time.Time, error) {
	exp := now.Add(c.refreshTTL)
	signed, err := c.sign(jwtClaims{
		UID:  userID,
		SID:  sessionID,
		Kind: KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	return signed, exp, err
}

func (c *Codec) sign(claims jwtClaims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(c.key)
}

// Decode verifies signature, structure, issuer, and expiry at the given time.
// Every failure mode collapses to ErrInvalidToken; callers must not leak the
// distinction to clients.
func (c *Codec) Decode(tokenStr string, now time.Time) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	parsed, err := parser.ParseWithClaims(tokenStr, &jwtClaims{}, func(*jwt.Token) (interface{}, error) {
		return c.key, nil
	})
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid || claims.UID == "" {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{
		UserID:    claims.UID,
		SessionID: claims.SID,
		Kind:      claims.Kind,
		Issuer:    claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
