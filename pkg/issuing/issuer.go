package issuing

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/tokengate/pkg/claims"
)

// Issue signs a token carrying cs, valid from now and, when s has a
// lifetime, until now plus that lifetime. It returns the compact token and
// its expiry, which is nil for tokens that never expire.
//
// now is taken in UTC and truncated to whole seconds, the precision of the
// nbf and exp claims, so the returned expiry equals the token's exp. A
// lifetime with a fractional second is truncated the same way.
// Claims are embedded verbatim; a claim type given more than once becomes an
// array in the given order. nbf and exp are always set from now and s and
// override any claims of the same name.
func Issue(cs []claims.Claim, s Settings, now time.Time) (string, *time.Time, error) {
	if err := s.validate(); err != nil {
		return "", nil, err
	}

	notBefore := now.UTC().Truncate(time.Second)

	payload := make(jwtlib.MapClaims, len(cs)+2)
	for _, c := range cs {
		switch prev := payload[c.Type].(type) {
		case nil:
			payload[c.Type] = c.Value
		case string:
			payload[c.Type] = []string{prev, c.Value}
		case []string:
			payload[c.Type] = append(prev, c.Value)
		}
	}

	payload["nbf"] = jwtlib.NewNumericDate(notBefore)
	delete(payload, "exp")

	var expires *time.Time
	if lifetime, ok := s.Lifetime(); ok {
		exp := notBefore.Add(lifetime).Truncate(time.Second)
		expires = &exp
		payload["exp"] = jwtlib.NewNumericDate(exp)
	}

	token, err := jwtlib.NewWithClaims(s.method, payload).SignedString(s.key)
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}
	return token, expires, nil
}
