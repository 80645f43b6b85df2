// Package apikey authenticates machine clients with static API keys sent
// as bearer tokens. Keys are kept only as SHA-256 digests and compared in
// constant time.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/rhuss/tokengate/pkg/auth"
)

// Entry configures one API key. Exactly one of Key (plaintext) or SHA256
// (hex digest of the key) must be set.
type Entry struct {
	Subject string
	Key     string
	SHA256  string
}

type keyEntry struct {
	digest  [sha256.Size]byte
	subject string
}

// Authenticator validates bearer tokens against a static key store.
type Authenticator struct {
	keys []keyEntry
}

// New hashes plaintext keys and decodes digests. Plaintext keys are not
// retained.
func New(entries []Entry) (*Authenticator, error) {
	a := &Authenticator{}
	for i, e := range entries {
		if e.Subject == "" {
			return nil, fmt.Errorf("api key %d: subject is required", i)
		}
		var k keyEntry
		k.subject = e.Subject
		switch {
		case e.Key != "" && e.SHA256 != "":
			return nil, fmt.Errorf("api key %q: set key or sha256, not both", e.Subject)
		case e.Key != "":
			k.digest = sha256.Sum256([]byte(e.Key))
		case e.SHA256 != "":
			b, err := hex.DecodeString(strings.TrimSpace(e.SHA256))
			if err != nil || len(b) != sha256.Size {
				return nil, fmt.Errorf("api key %q: sha256 must be %d hex bytes", e.Subject, sha256.Size)
			}
			copy(k.digest[:], b)
		default:
			return nil, fmt.Errorf("api key %q: key or sha256 is required", e.Subject)
		}
		a.keys = append(a.keys, k)
	}
	return a, nil
}

// Authenticate abstains when no bearer token is present or when the token
// looks like a JWT (three dot-separated segments), leaving it to the token
// authenticator. Any other bearer value must match a configured key.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	token, ok := auth.BearerToken(r)
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if token == "" {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrEmptyToken}
	}
	if strings.Count(token, ".") == 2 {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	digest := sha256.Sum256([]byte(token))
	for _, k := range a.keys {
		if subtle.ConstantTimeCompare(digest[:], k.digest[:]) == 1 {
			return auth.AuthResult{
				Decision: auth.Yes,
				Identity: &auth.Identity{Subject: k.subject},
			}
		}
	}

	return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
}
