package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rhuss/tokengate/pkg/issuing"
)

// DefaultTokenEndpoint is the issuance path a server uses unless configured otherwise.
const DefaultTokenEndpoint = "/api/token"

var (
	// ErrBadRequest means the server rejected the token request as malformed.
	ErrBadRequest = errors.New("token request rejected")
	// ErrLoginNotFound means no user has the given login.
	ErrLoginNotFound = errors.New("login not found")
	// ErrIncorrectPassword means the login exists but the password is wrong.
	ErrIncorrectPassword = errors.New("incorrect password")
)

// Tokens requests tokens from the issuance endpoint.
type Tokens struct {
	base     *Base
	endpoint string
}

// NewTokens creates a token client. An empty endpoint means DefaultTokenEndpoint.
func NewTokens(base *Base, endpoint string) *Tokens {
	if endpoint == "" {
		endpoint = DefaultTokenEndpoint
	}
	return &Tokens{base: base, endpoint: endpoint}
}

// Issue exchanges credentials for a token. Authentication failures wrap
// ErrLoginNotFound or ErrIncorrectPassword together with the server's message.
func (t *Tokens) Issue(ctx context.Context, login, password string) (*issuing.TokenResponse, error) {
	var out issuing.TokenResponse
	_, err := t.base.Post(ctx, t.endpoint, issuing.TokenRequest{Login: login, Password: password}, &out)
	if err != nil {
		return nil, mapTokenError(err)
	}
	return &out, nil
}

func mapTokenError(err error) error {
	var se *StatusError
	if !errors.As(err, &se) {
		return err
	}
	switch se.StatusCode {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrLoginNotFound, se.Body)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrIncorrectPassword, se.Body)
	}
	return err
}
