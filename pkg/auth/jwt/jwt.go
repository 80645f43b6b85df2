// Package jwt authenticates bearer tokens minted by this service.
//
// Tokens are verified with the same algorithm the issuer signs with and the
// verification key derived from the signing key: the shared secret for
// HMAC, the public key otherwise. nbf and exp are enforced when present.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/tokengate/pkg/auth"
	"github.com/rhuss/tokengate/pkg/debug"
	"github.com/rhuss/tokengate/pkg/issuing"
)

// Config holds the JWT authenticator configuration.
type Config struct {
	// Algorithm is the only accepted JWS algorithm, e.g. "HS256".
	Algorithm string

	// Key verifies signatures: []byte for HMAC, a public key otherwise.
	Key any

	// SubjectClaim names the claim used as the identity subject. Default: "sub".
	SubjectClaim string

	// Leeway tolerates clock skew when checking nbf and exp. Default: none.
	Leeway time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Authenticator validates locally issued JWT bearer tokens.
type Authenticator struct {
	config  Config
	options []jwtlib.ParserOption
}

// New creates a JWT authenticator with the given configuration.
func New(cfg Config) (*Authenticator, error) {
	if cfg.Algorithm == "" {
		return nil, errors.New("jwt: algorithm is required")
	}
	if jwtlib.GetSigningMethod(cfg.Algorithm) == nil {
		return nil, fmt.Errorf("jwt: unsupported algorithm %q", cfg.Algorithm)
	}
	if cfg.Key == nil {
		return nil, errors.New("jwt: verification key is required")
	}
	if cfg.SubjectClaim == "" {
		cfg.SubjectClaim = "sub"
	}

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{cfg.Algorithm}),
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwtlib.WithLeeway(cfg.Leeway))
	}
	if cfg.Now != nil {
		opts = append(opts, jwtlib.WithTimeFunc(cfg.Now))
	}

	return &Authenticator{config: cfg, options: opts}, nil
}

// FromSettings builds an authenticator that accepts the tokens issued with s.
func FromSettings(s issuing.Settings, subjectClaim string) (*Authenticator, error) {
	return New(Config{
		Algorithm:    s.Algorithm(),
		Key:          issuing.VerificationKey(s),
		SubjectClaim: subjectClaim,
	})
}

// Authenticate validates a bearer JWT and returns an identity on success.
//
// Decision outcomes:
//   - Abstain: no bearer token, or a bearer value that is not JWT-shaped
//   - No: JWT present but invalid (bad signature, expired, not yet valid, no subject)
//   - Yes: valid JWT with populated Identity
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	tokenStr, ok := auth.BearerToken(r)
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if tokenStr == "" {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrEmptyToken}
	}
	if strings.Count(tokenStr, ".") != 2 {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	token, err := jwtlib.Parse(tokenStr, func(*jwtlib.Token) (any, error) {
		return a.config.Key, nil
	}, a.options...)
	if err != nil {
		debug.Log(debug.Auth, "JWT validation failed", "token", debug.Redact(tokenStr, 10), "error", err)
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("invalid JWT: %w", err),
		}
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok || !token.Valid {
		return auth.AuthResult{Decision: auth.No, Err: errors.New("invalid JWT claims")}
	}

	subject, _ := claims[a.config.SubjectClaim].(string)
	if subject == "" {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("JWT missing %q claim", a.config.SubjectClaim),
		}
	}

	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{Subject: subject, Claims: claims},
	}
}
