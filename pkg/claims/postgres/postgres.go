// Package postgres provides a PostgreSQL-backed claims.Resolver.
// It uses pgx/v5 for connection pooling. Users live in the users table and
// their claims, in issue order, in user_claims.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/tokengate/pkg/claims"
	"github.com/rhuss/tokengate/pkg/debug"
)

// ErrUserExists is returned by CreateUser when the login is already taken.
var ErrUserExists = errors.New("user already exists")

// Store is a PostgreSQL-backed user store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements claims.Resolver at compile time.
var _ claims.Resolver = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Resolve looks up login and checks password against the stored hash.
func (s *Store) Resolve(ctx context.Context, login, password string) (claims.Resolution, error) {
	user, err := s.getUser(ctx, login)
	if err != nil {
		return claims.Resolution{}, err
	}
	debug.Log(debug.Claims, "postgres user lookup", "found", user != nil)
	return claims.Verify(user, login, password)
}

// getUser loads a user and its claims. It returns nil, nil for an unknown login.
func (s *Store) getUser(ctx context.Context, login string) (*claims.User, error) {
	user := &claims.User{Login: login}
	err := s.pool.QueryRow(ctx,
		"SELECT password_hash FROM users WHERE login = $1",
		login,
	).Scan(&user.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT claim_type, claim_value
		FROM user_claims
		WHERE login = $1
		ORDER BY position
	`, login)
	if err != nil {
		return nil, fmt.Errorf("querying claims: %w", err)
	}
	user.Claims, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (claims.Claim, error) {
		var c claims.Claim
		err := row.Scan(&c.Type, &c.Value)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning claims: %w", err)
	}

	return user, nil
}

// CreateUser inserts a user and its claims in one transaction.
// Returns ErrUserExists if the login is taken.
func (s *Store) CreateUser(ctx context.Context, u claims.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			"INSERT INTO users (login, password_hash) VALUES ($1, $2)",
			u.Login, u.PasswordHash,
		); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i, c := range u.Claims {
			batch.Queue(
				"INSERT INTO user_claims (login, position, claim_type, claim_value) VALUES ($1, $2, $3, $4)",
				u.Login, i, c.Type, c.Value,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		if isDuplicateKey(err) {
			return ErrUserExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// DeleteUser removes a user and, by cascade, its claims. Deleting an
// unknown login is a no-op.
func (s *Store) DeleteUser(ctx context.Context, login string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM users WHERE login = $1", login); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// isDuplicateKey reports a unique_violation (SQLSTATE 23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
