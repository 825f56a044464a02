package directory

import (
	"context"
	"time"
)

// Role is the closed set of account roles, ordered by authority.
type Role string

const (
	// RoleUser is a regular attendee account.
	RoleUser Role = "user"
	// RoleOrganizer can manage events it owns.
	RoleOrganizer Role = "organizer"
	// RoleAdmin can manage the platform.
	RoleAdmin Role = "admin"
	// RoleSysAdmin is the operations super-user.
	RoleSysAdmin Role = "sysadmin"
)

// rank gives the total order used by Meets. Unknown roles rank below RoleUser.
func (r Role) rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleOrganizer:
		return 2
	case RoleAdmin:
		return 3
	case RoleSysAdmin:
		return 4
	default:
		return 0
	}
}

// Valid reports whether r is one of the closed role set.
func (r Role) Valid() bool { return r.rank() > 0 }

// Meets reports whether r satisfies the minimum role min.
// A higher-ranked role always satisfies a lower minimum.
func (r Role) Meets(min Role) bool {
	return r.rank() > 0 && r.rank() >= min.rank()
}

// ParseRole maps a stored role string onto the closed set.
// Empty input defaults to RoleUser (legacy rows have a nullable role column).
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleOrganizer, RoleAdmin, RoleSysAdmin:
		return Role(s), nil
	case "":
		return RoleUser, nil
	default:
		return "", OpError{Op: "directory.ParseRole", Kind: ErrInvalidInput, Msg: "unknown role"}
	}
}

// User is the directory's view of an account, as consumed by auth routes.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	IsActive  bool
	CreatedAt time.Time
}

// CreateUserInput describes a registration request.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Now      time.Time
}

// Directory resolves and authenticates user records.
//
// GetUserByID and GetUserByEmail return ErrNotFound-kinded errors for missing
// users. Authenticate returns the user only when the password verifies against
// the stored hash; it must not reveal whether the account exists.
type Directory interface {
	GetUserByID(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, in CreateUserInput) (User, error)
	Authenticate(ctx context.Context, email, password string) (User, error)
}
