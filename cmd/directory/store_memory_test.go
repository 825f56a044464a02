package directory

import (
	"context"
	"testing"
)

func TestMemoryStore_CreateAndLookup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := NewMemoryStore()

	u, err := st.Create(ctx, CreateUserInput{Name: "Ada", Email: "Ada@Example.com", Password: "strong-enough"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == "" || u.Role != RoleUser || !u.IsActive {
		t.Fatalf("unexpected user defaults: %+v", u)
	}

	byID, err := st.GetUserByID(ctx, u.ID)
	if err != nil || byID.Email != "Ada@Example.com" {
		t.Fatalf("GetUserByID = (%+v, %v)", byID, err)
	}

	// Email lookup is case-insensitive.
	byEmail, err := st.GetUserByEmail(ctx, "ada@example.COM")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("GetUserByEmail = (%+v, %v)", byEmail, err)
	}

	if _, err := st.GetUserByID(ctx, "missing"); !IsNotFound(err) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestMemoryStore_DuplicateEmail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := NewMemoryStore()

	if _, err := st.Create(ctx, CreateUserInput{Name: "A", Email: "dup@example.com", Password: "strong-enough"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := st.Create(ctx, CreateUserInput{Name: "B", Email: "DUP@example.com", Password: "strong-enough"})
	if !IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestMemoryStore_Authenticate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := NewMemoryStore()

	u, err := st.Create(ctx, CreateUserInput{Name: "Ada", Email: "ada@example.com", Password: "strong-enough"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := st.Authenticate(ctx, "ada@example.com", "strong-enough")
	if err != nil || got.ID != u.ID {
		t.Fatalf("Authenticate = (%+v, %v)", got, err)
	}

	if _, err := st.Authenticate(ctx, "ada@example.com", "wrong-password"); !IsBadPassword(err) {
		t.Fatalf("expected bad_password, got %v", err)
	}
	// Missing account fails the same way as a bad password.
	if _, err := st.Authenticate(ctx, "ghost@example.com", "strong-enough"); !IsBadPassword(err) {
		t.Fatalf("expected bad_password for missing user, got %v", err)
	}
}
