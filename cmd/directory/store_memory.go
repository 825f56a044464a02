package directory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Directory for tests and DB-less development.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]memUser
	byEmail map[string]string // email_norm -> id
}

type memUser struct {
	user   User
	pwHash string
}

// NewMemoryStore constructs an empty in-memory directory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]memUser),
		byEmail: make(map[string]string),
	}
}

// GetUserByID loads a user by identifier.
func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "directory.GetUserByID"
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.byID[id]
	if !ok {
		return User{}, OpError{Op: op, Kind: ErrNotFound}
	}
	return mu.user, nil
}

// GetUserByEmail loads a user by normalized email.
func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "directory.GetUserByEmail"
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return User{}, OpError{Op: op, Kind: ErrNotFound}
	}
	return s.byID[id].user, nil
}

// Create registers a new user.
func (s *MemoryStore) Create(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "directory.Create"
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	if in.Name == "" || in.Email == "" {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	norm := NormalizeEmail(in.Email)
	if _, exists := s.byEmail[norm]; exists {
		return User{}, OpError{Op: op, Kind: ErrConflict, Msg: "email"}
	}

	u := User{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Email:     in.Email,
		Role:      RoleUser,
		IsActive:  true,
		CreatedAt: now,
	}
	s.byID[u.ID] = memUser{user: u, pwHash: hash}
	s.byEmail[norm] = u.ID

	return u, nil
}

// Authenticate verifies email+password.
func (s *MemoryStore) Authenticate(ctx context.Context, email, password string) (User, error) {
	const op = "directory.Authenticate"
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	id, ok := s.byEmail[NormalizeEmail(email)]
	var mu memUser
	if ok {
		mu = s.byID[id]
	}
	s.mu.Unlock()

	if !ok {
		return User{}, OpError{Op: op, Kind: ErrBadPassword}
	}
	match, err := VerifyPassword(password, mu.pwHash)
	if err != nil || !match {
		return User{}, OpError{Op: op, Kind: ErrBadPassword}
	}
	return mu.user, nil
}

// SetRole overrides a user's role (test/seed helper).
func (s *MemoryStore) SetRole(id string, role Role) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.byID[id]
	if !ok {
		return false
	}
	mu.user.Role = role
	s.byID[id] = mu
	return true
}

// SetActive overrides a user's active flag (test/seed helper).
func (s *MemoryStore) SetActive(id string, active bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.byID[id]
	if !ok {
		return false
	}
	mu.user.IsActive = active
	s.byID[id] = mu
	return true
}
