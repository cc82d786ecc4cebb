package auth

import (
	"context"
	"errors"
	"testing"

	"dundie-api/internal/security"
	"dundie-api/internal/users"

	"golang.org/x/crypto/bcrypt"
)

// failingLookup simulates an unavailable user store.
type failingLookup struct{ err error }

func (f failingLookup) FindByUsername(ctx context.Context, username string) (users.User, error) {
	return users.User{}, f.err
}

var errStoreDown = errors.New("store unavailable")

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := security.HashPassword(pw, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return h
}

// seededUsers returns a store with alice (regular) and michael (superuser).
func seededUsers(t *testing.T) *users.MemoryRepo {
	t.Helper()
	return users.NewMemoryRepo(
		users.User{Username: "alice", Email: "alice@dm.com", PasswordHash: mustHash(t, "alice-pw"), Dept: "sales"},
		users.User{Username: "michael", Email: "michael@dm.com", PasswordHash: mustHash(t, "boss-pw"), Dept: users.DeptManagement, Superuser: true},
	)
}
