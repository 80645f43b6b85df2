// Package redis provides a Redis-backed claims.Resolver.
//
// Each user is one hash at "<prefix>user:<login>" with two fields:
// password_hash (bcrypt) and claims (a JSON array of {type, value}).
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rhuss/tokengate/pkg/claims"
	"github.com/rhuss/tokengate/pkg/debug"
)

const (
	fieldPasswordHash = "password_hash"
	fieldClaims       = "claims"
)

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces all keys (default: "tokengate:").
	Prefix string
}

// Store is a Redis-backed user store.
type Store struct {
	client goredis.UniversalClient
	prefix string
}

// Ensure Store implements claims.Resolver at compile time.
var _ claims.Resolver = (*Store)(nil)

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	return NewWithClient(client, cfg.Prefix), nil
}

// NewWithClient wraps an existing client. The store takes ownership and
// closes it on Close.
func NewWithClient(client goredis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "tokengate:"
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) userKey(login string) string {
	return s.prefix + "user:" + login
}

// Resolve looks up login and checks password against the stored hash.
func (s *Store) Resolve(ctx context.Context, login, password string) (claims.Resolution, error) {
	fields, err := s.client.HGetAll(ctx, s.userKey(login)).Result()
	if err != nil {
		return claims.Resolution{}, fmt.Errorf("reading user: %w", err)
	}
	debug.Log(debug.Claims, "redis user lookup", "found", len(fields) > 0)
	if len(fields) == 0 {
		return claims.Verify(nil, login, password)
	}

	user := &claims.User{Login: login, PasswordHash: fields[fieldPasswordHash]}
	if raw := fields[fieldClaims]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &user.Claims); err != nil {
			return claims.Resolution{}, fmt.Errorf("decoding stored claims: %w", err)
		}
	}
	return claims.Verify(user, login, password)
}

// PutUser inserts or replaces a user.
func (s *Store) PutUser(ctx context.Context, u claims.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	cs := u.Claims
	if cs == nil {
		cs = []claims.Claim{}
	}
	encoded, err := json.Marshal(cs)
	if err != nil {
		return fmt.Errorf("encoding claims: %w", err)
	}

	key := s.userKey(u.Login)
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fieldPasswordHash, u.PasswordHash, fieldClaims, string(encoded))
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing user: %w", err)
	}
	return nil
}

// DeleteUser removes a user. Deleting an unknown login is a no-op.
func (s *Store) DeleteUser(ctx context.Context, login string) error {
	if err := s.client.Del(ctx, s.userKey(login)).Err(); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
