// Package noop provides an authenticator that accepts every request as an
// anonymous caller. Meant for local development only.
package noop

import (
	"context"
	"net/http"

	"github.com/rhuss/tokengate/pkg/auth"
)

// Authenticator always returns Yes with an anonymous identity.
type Authenticator struct{}

// Authenticate implements auth.Authenticator.
func (Authenticator) Authenticate(_ context.Context, _ *http.Request) auth.AuthResult {
	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{Subject: "anonymous"},
	}
}
