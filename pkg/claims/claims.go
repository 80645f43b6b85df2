package claims

import (
	"context"
	"fmt"
	"strings"
)

// Claim is a single key/value fact about an identity. The issuer embeds
// claims verbatim without interpreting them.
type Claim struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

// Outcome identifies which variant a Resolution carries.
type Outcome int

const (
	// Resolved means the credentials were accepted and Claims is populated.
	Resolved Outcome = iota

	// LoginNotFound means no identity exists for the login.
	LoginNotFound

	// IncorrectPassword means the identity exists but the password does not match.
	IncorrectPassword
)

// String returns the outcome name used in logs and metric labels.
func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case LoginNotFound:
		return "login_not_found"
	case IncorrectPassword:
		return "incorrect_password"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Resolution is the result of resolving a credential pair.
type Resolution struct {
	Outcome Outcome

	// Claims is populated only when Outcome == Resolved.
	Claims []Claim

	// Message is a human-readable explanation for the failure variants.
	// It is returned to the caller verbatim.
	Message string
}

// Found returns a successful resolution carrying claims.
func Found(claims ...Claim) Resolution {
	return Resolution{Outcome: Resolved, Claims: claims}
}

// NotFound returns a LoginNotFound resolution.
func NotFound(message string) Resolution {
	return Resolution{Outcome: LoginNotFound, Message: message}
}

// WrongPassword returns an IncorrectPassword resolution.
func WrongPassword(message string) Resolution {
	return Resolution{Outcome: IncorrectPassword, Message: message}
}

// Resolver turns credentials into the claims of the identity they belong to.
//
// Implementations report authentication failures through the Resolution.
// A non-nil error signals a fault (store unreachable, corrupt record,
// cancelled context) and is not translated into an authentication outcome.
type Resolver interface {
	Resolve(ctx context.Context, login, password string) (Resolution, error)
}

// ResolverFunc adapts an ordinary function to the Resolver interface.
type ResolverFunc func(ctx context.Context, login, password string) (Resolution, error)

// Resolve calls f(ctx, login, password).
func (f ResolverFunc) Resolve(ctx context.Context, login, password string) (Resolution, error) {
	return f(ctx, login, password)
}

// Default failure messages used by the bundled stores.
const (
	MessageIncorrectPassword = "incorrect password"
)

// NoSuchUser formats the LoginNotFound message used by the bundled stores.
func NoSuchUser(login string) string {
	return "no such user: " + login
}

// User is a stored identity: a login, the bcrypt hash of its password, and
// the claims issued for it.
type User struct {
	Login        string  `json:"login" yaml:"login"`
	PasswordHash string  `json:"password_hash" yaml:"password_hash"`
	Claims       []Claim `json:"claims" yaml:"claims"`
}

// Validate checks that the record can be stored.
func (u User) Validate() error {
	if strings.TrimSpace(u.Login) == "" {
		return fmt.Errorf("%w: login is required", ErrInvalidUser)
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("%w: password hash is required for %q", ErrInvalidUser, u.Login)
	}
	return nil
}

// Verify checks password against a looked-up user and produces the matching
// Resolution. A nil user means the login does not exist.
func Verify(user *User, login, password string) (Resolution, error) {
	if user == nil {
		return NotFound(NoSuchUser(login)), nil
	}
	ok, err := CheckPassword(user.PasswordHash, password)
	if err != nil {
		return Resolution{}, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return WrongPassword(MessageIncorrectPassword), nil
	}
	out := make([]Claim, len(user.Claims))
	copy(out, user.Claims)
	return Found(out...), nil
}
