package sqlite

import (
	"context"
	"errors"
	"testing"
)

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "a@example.com", "hash", "Alice"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := s.CreateUser(ctx, "a@example.com", "hash2", "Alice again")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email: got %v, want ErrConflict", err)
	}
	// Emails are case-insensitive.
	_, err = s.CreateUser(ctx, "A@Example.COM", "hash3", "Shouting Alice")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email different case: got %v, want ErrConflict", err)
	}
}

func TestUserLookups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "bob@example.com", "Bob")

	byEmail, err := s.UserByEmail(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("UserByEmail: %v", err)
	}
	if byEmail.ID != u.ID || byEmail.Name != "Bob" {
		t.Errorf("UserByEmail = %+v, want id %d name Bob", byEmail, u.ID)
	}

	byID, err := s.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID: %v", err)
	}
	if byID.Email != "bob@example.com" {
		t.Errorf("UserByID email = %q", byID.Email)
	}

	if _, err := s.UserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown email: got %v, want ErrNotFound", err)
	}
	if _, err := s.UserByID(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id: got %v, want ErrNotFound", err)
	}
}
