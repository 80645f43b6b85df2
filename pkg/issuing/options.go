package issuing

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Options assembles Settings. Each setter validates its arguments when it is
// called and records the first failure; later setters keep chaining but the
// recorded error sticks and is returned by Err and Build.
//
//	settings, err := issuing.NewOptions().
//		WithEndpoint("/api/token").
//		WithSigningKey("HS256", secret).
//		WithLifetime(time.Hour).
//		Build()
type Options struct {
	endpoint string
	method   jwtlib.SigningMethod
	key      any
	lifetime time.Duration
	err      error
}

// NewOptions returns an empty builder.
func NewOptions() *Options {
	return &Options{}
}

func (o *Options) fail(err error) *Options {
	if o.err == nil {
		o.err = err
	}
	return o
}

// WithEndpoint sets the request path the middleware intercepts.
func (o *Options) WithEndpoint(path string) *Options {
	if strings.TrimSpace(path) == "" {
		return o.fail(configErr("endpoint", "must not be blank"))
	}
	if !strings.HasPrefix(path, "/") {
		return o.fail(configErr("endpoint", "must start with /"))
	}
	o.endpoint = path
	return o
}

// WithSigningKey sets the signing algorithm (a JWS name such as "HS256",
// "RS256", "ES256" or "EdDSA") and the key to sign with. HMAC algorithms take
// a []byte or string secret; the others take the private key type of their
// family (*rsa.PrivateKey, *ecdsa.PrivateKey, ed25519.PrivateKey).
func (o *Options) WithSigningKey(algorithm string, key any) *Options {
	method, err := signingMethod(algorithm)
	if err != nil {
		return o.fail(err)
	}
	if s, ok := key.(string); ok {
		key = []byte(s)
	}
	if err := checkKey(method, key); err != nil {
		return o.fail(err)
	}
	o.method = method
	o.key = key
	return o
}

// WithLifetime sets how long issued tokens stay valid. Zero means tokens
// never expire. The last call wins.
func (o *Options) WithLifetime(d time.Duration) *Options {
	if d < 0 {
		return o.fail(configErr("lifetime", "must not be negative"))
	}
	if d > 0 && d < time.Second {
		return o.fail(configErr("lifetime", "must be at least one second"))
	}
	o.lifetime = d
	return o
}

// Err returns the first validation failure, if any.
func (o *Options) Err() error {
	return o.err
}

// Build returns an immutable Settings value, or the first recorded error, or
// a *ConfigurationError naming a required field that was never set.
func (o *Options) Build() (Settings, error) {
	if o.err != nil {
		return Settings{}, o.err
	}
	s := Settings{
		endpoint: o.endpoint,
		method:   o.method,
		key:      o.key,
		lifetime: o.lifetime,
	}
	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Settings is the validated signing configuration. The zero value is not
// usable; obtain one from Options.Build.
type Settings struct {
	endpoint string
	method   jwtlib.SigningMethod
	key      any
	lifetime time.Duration
}

// Endpoint returns the intercepted request path.
func (s Settings) Endpoint() string { return s.endpoint }

// Algorithm returns the JWS algorithm name, or "" for the zero value.
func (s Settings) Algorithm() string {
	if s.method == nil {
		return ""
	}
	return s.method.Alg()
}

// Lifetime returns the token lifetime and whether tokens expire at all.
func (s Settings) Lifetime() (time.Duration, bool) {
	return s.lifetime, s.lifetime > 0
}

func (s Settings) validate() error {
	if s.endpoint == "" {
		return configErr("endpoint", "not set")
	}
	if s.method == nil {
		return configErr("algorithm", "not set")
	}
	if s.key == nil {
		return configErr("key", "not set")
	}
	return nil
}
