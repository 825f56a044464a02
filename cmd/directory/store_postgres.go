package directory

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Directory over PostgreSQL.
//
// Design notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema identifiers are validated to avoid SQL injection via identifiers.
// - Errors are mapped to directory sentinel kinds where appropriate.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string

	// dummyHash keeps Authenticate timing-uniform when the account is missing.
	dummyHash string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the directory store (default "mgl").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" || !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("directory: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with secure defaults.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: "mgl"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("directory: nil pool")
	}
	if h, err := HashPassword("dummy-password-for-timing-only"); err == nil {
		st.dummyHash = h
	}
	return st, nil
}

func (s *PostgresStore) table() string {
	return fmt.Sprintf("%q.users", s.schema)
}

// GetUserByID loads a user by its identifier.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "directory.GetUserByID"

	u, _, err := s.scanUser(ctx, op, `WHERE id = $1`, id)
	return u, err
}

// GetUserByEmail loads a user by normalized email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "directory.GetUserByEmail"

	u, _, err := s.scanUser(ctx, op, `WHERE email_norm = $1`, NormalizeEmail(email))
	return u, err
}

// Create registers a new user with a freshly hashed password.
func (s *PostgresStore) Create(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "directory.Create"

	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "name and email are required"}
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: err.Error()}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	u := User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Role:      RoleUser,
		IsActive:  true,
		CreatedAt: now,
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, name, email, email_norm, password_hash, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.table()), u.ID, u.Name, u.Email, NormalizeEmail(u.Email), hash, string(u.Role), u.IsActive, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, OpError{Op: op, Kind: ErrConflict, Msg: "email"}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// Authenticate verifies email+password and returns the account on success.
// Missing users and bad passwords are indistinguishable to the caller.
func (s *PostgresStore) Authenticate(ctx context.Context, email, password string) (User, error) {
	const op = "directory.Authenticate"

	u, hash, err := s.scanUser(ctx, op, `WHERE email_norm = $1`, NormalizeEmail(email))
	if err != nil {
		// Timing resistance: perform a dummy verify when the user is missing.
		if IsNotFound(err) && s.dummyHash != "" {
			_, _ = VerifyPassword(password, s.dummyHash)
		}
		return User{}, OpError{Op: op, Kind: ErrBadPassword}
	}

	ok, err := VerifyPassword(password, hash)
	if err != nil || !ok {
		return User{}, OpError{Op: op, Kind: ErrBadPassword}
	}

	return u, nil
}

func (s *PostgresStore) scanUser(ctx context.Context, op, where string, arg any) (User, string, error) {
	var (
		u       User
		role    string
		pwHash  string
		created time.Time
	)

	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, name, email, password_hash, role, is_active, created_at
		FROM %s
		%s
	`, s.table(), where), arg).Scan(&u.ID, &u.Name, &u.Email, &pwHash, &role, &u.IsActive, &created)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, "", OpError{Op: op, Kind: ErrNotFound}
	}
	if err != nil {
		return User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	parsed, perr := ParseRole(role)
	if perr != nil {
		// Unknown stored role: treat the row as least-privileged rather than failing auth.
		parsed = RoleUser
	}
	u.Role = parsed
	u.CreatedAt = created

	return u, pwHash, nil
}
