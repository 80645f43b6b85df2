// Package memory provides an in-memory claims.Resolver for tests and small
// deployments where users are listed in the configuration file. Records are
// lost when the process restarts.
package memory

import (
	"context"
	"sync"

	"github.com/rhuss/tokengate/pkg/claims"
)

// Store is an in-memory user store keyed by login.
type Store struct {
	mu    sync.RWMutex
	users map[string]claims.User
}

// Ensure Store implements claims.Resolver at compile time.
var _ claims.Resolver = (*Store)(nil)

// New creates a store seeded with users. It fails on the first invalid record.
func New(users ...claims.User) (*Store, error) {
	s := &Store{users: make(map[string]claims.User, len(users))}
	for _, u := range users {
		if err := s.Put(u); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Put inserts or replaces a user.
func (s *Store) Put(u claims.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	// Copy claims to avoid sharing the caller's slice.
	stored := u
	stored.Claims = append([]claims.Claim(nil), u.Claims...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Login] = stored
	return nil
}

// Remove deletes a user. Removing an unknown login is a no-op.
func (s *Store) Remove(login string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, login)
}

// Len returns the number of stored users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Resolve looks up login and checks password against its bcrypt hash.
func (s *Store) Resolve(ctx context.Context, login, password string) (claims.Resolution, error) {
	if err := ctx.Err(); err != nil {
		return claims.Resolution{}, err
	}

	s.mu.RLock()
	u, ok := s.users[login]
	s.mu.RUnlock()

	if !ok {
		return claims.Verify(nil, login, password)
	}
	return claims.Verify(&u, login, password)
}
