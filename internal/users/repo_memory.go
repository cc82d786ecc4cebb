package users

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Store for tests and local development.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	byName map[string]User
	clock  func() time.Time
}

// NewMemoryRepo returns a repo holding seed. It panics if a seed user is
// invalid or duplicated.
func NewMemoryRepo(seed ...User) *MemoryRepo {
	r := &MemoryRepo{byName: map[string]User{}, clock: time.Now}
	for _, u := range seed {
		if _, err := r.Create(context.Background(), u); err != nil {
			panic(fmt.Sprintf("users: seed %q: %v", u.Username, err))
		}
	}
	return r
}

func (r *MemoryRepo) FindByUsername(ctx context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byName[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.byName))
	for _, u := range r.byName {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepo) Create(ctx context.Context, u User) (User, error) {
	if u.Username == "" {
		return User{}, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[u.Username]; ok {
		return User{}, ErrAlreadyExists
	}
	for _, existing := range r.byName {
		if u.Email != "" && existing.Email == u.Email {
			return User{}, ErrAlreadyExists
		}
	}
	r.nextID++
	u.ID = r.nextID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.clock().UTC()
	}
	r.byName[u.Username] = u
	return u, nil
}

func (r *MemoryRepo) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	if passwordHash == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byName[username]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	r.byName[username] = u
	return nil
}
