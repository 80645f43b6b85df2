package issuing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/tokengate/pkg/claims"
	"github.com/rhuss/tokengate/pkg/debug"
	"github.com/rhuss/tokengate/pkg/observability"
)

// DefaultMaxBodySize caps the size of a token request body.
const DefaultMaxBodySize int64 = 1 << 20 // 1 MB

// ErrorHandler answers a token request whose resolution or signing failed
// with an error other than the two named authentication failures.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Option configures a Middleware.
type Option func(*Middleware)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Middleware) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock sets the time source used for nbf and exp.
func WithClock(now func() time.Time) Option {
	return func(m *Middleware) {
		if now != nil {
			m.now = now
		}
	}
}

// WithMaxBodySize caps the request body. Non-positive values keep the default.
func WithMaxBodySize(n int64) Option {
	return func(m *Middleware) {
		if n > 0 {
			m.maxBodySize = n
		}
	}
}

// WithErrorHandler replaces the handler for unexpected failures.
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Middleware) {
		if h != nil {
			m.onError = h
		}
	}
}

// Middleware intercepts the issuance endpoint and passes everything else on.
// It holds no per-request state and is safe for concurrent use.
type Middleware struct {
	resolver    claims.Resolver
	settings    Settings
	logger      *slog.Logger
	now         func() time.Time
	maxBodySize int64
	onError     ErrorHandler
}

// New creates the issuance middleware. It fails with a *ConfigurationError
// when resolver is nil or settings lack an endpoint, algorithm, or key.
func New(resolver claims.Resolver, settings Settings, opts ...Option) (*Middleware, error) {
	if resolver == nil {
		return nil, configErr("resolver", "must not be nil")
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}

	m := &Middleware{
		resolver:    resolver,
		settings:    settings,
		logger:      slog.Default(),
		now:         time.Now,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.onError == nil {
		m.onError = m.defaultErrorHandler
	}
	return m, nil
}

// Settings returns the signing configuration the middleware was built with.
func (m *Middleware) Settings() Settings {
	return m.settings
}

// Wrap returns a handler that serves the issuance endpoint and delegates
// every other path to next. The path comparison ignores case.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.EqualFold(r.URL.Path, m.settings.endpoint) {
			next.ServeHTTP(w, r)
			return
		}
		m.serveToken(w, r)
	})
}

// Handler is Wrap in the func(http.Handler) http.Handler shape.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return m.Wrap(next)
}

func (m *Middleware) serveToken(w http.ResponseWriter, r *http.Request) {
	// The method is checked first so a wrong-method request never has its
	// body read.
	if r.Method != http.MethodPost {
		m.badRequest(w, "method not allowed", "method", r.Method)
		return
	}

	req, err := m.decode(w, r)
	if err != nil {
		// Decoder errors can quote body bytes, so only the type is logged.
		m.badRequest(w, "malformed body", "error_type", fmt.Sprintf("%T", err))
		return
	}
	if strings.TrimSpace(req.Login) == "" || strings.TrimSpace(req.Password) == "" {
		m.badRequest(w, "missing credentials")
		return
	}

	debug.Log(debug.Issuing, "resolving claims")
	start := time.Now()
	res, err := m.resolver.Resolve(r.Context(), req.Login, req.Password)
	if err != nil {
		observability.ResolverDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		observability.IssuanceFailuresTotal.WithLabelValues(observability.ReasonError).Inc()
		m.onError(w, r, fmt.Errorf("resolving claims: %w", err))
		return
	}
	observability.ResolverDuration.WithLabelValues(res.Outcome.String()).Observe(time.Since(start).Seconds())

	switch res.Outcome {
	case claims.Resolved:
		m.issue(w, r, res.Claims)
	case claims.LoginNotFound:
		observability.IssuanceFailuresTotal.WithLabelValues(observability.ReasonLoginNotFound).Inc()
		m.logger.Info("token request rejected", "reason", observability.ReasonLoginNotFound)
		writeMessage(w, http.StatusNotFound, res.Message)
	case claims.IncorrectPassword:
		observability.IssuanceFailuresTotal.WithLabelValues(observability.ReasonIncorrectPassword).Inc()
		m.logger.Info("token request rejected", "reason", observability.ReasonIncorrectPassword)
		writeMessage(w, http.StatusForbidden, res.Message)
	default:
		observability.IssuanceFailuresTotal.WithLabelValues(observability.ReasonError).Inc()
		m.onError(w, r, fmt.Errorf("%w: %v", ErrUnknownOutcome, res.Outcome))
	}
}

// decode reads exactly one JSON object from the body. Unknown fields are
// ignored and field names match case-insensitively.
func (m *Middleware) decode(w http.ResponseWriter, r *http.Request) (TokenRequest, error) {
	var req TokenRequest
	if r.Body == nil {
		return req, io.ErrUnexpectedEOF
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, m.maxBodySize))
	if err := dec.Decode(&req); err != nil {
		return req, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return req, errTrailingData
	}
	return req, nil
}

func (m *Middleware) issue(w http.ResponseWriter, r *http.Request, cs []claims.Claim) {
	token, expires, err := Issue(cs, m.settings, m.now())
	if err != nil {
		observability.IssuanceFailuresTotal.WithLabelValues(observability.ReasonError).Inc()
		m.onError(w, r, err)
		return
	}

	observability.TokensIssuedTotal.WithLabelValues(m.settings.Algorithm()).Inc()
	m.logger.Debug("token issued",
		"algorithm", m.settings.Algorithm(),
		"claims", len(cs),
		"expires", expires,
	)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(TokenResponse{Token: token, ExpirationDate: expires}); err != nil {
		m.logger.Debug("writing token response failed", "error", err)
	}
}

func (m *Middleware) badRequest(w http.ResponseWriter, reason string, attrs ...any) {
	observability.IssuanceFailuresTotal.WithLabelValues(observability.ReasonBadRequest).Inc()
	m.logger.Debug("token request invalid", append([]any{"reason", reason}, attrs...)...)
	w.WriteHeader(http.StatusBadRequest)
}

// defaultErrorHandler logs the failure and answers 500. When the client has
// already gone away nothing is written.
func (m *Middleware) defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		m.logger.Debug("token request abandoned", "error", err)
		return
	}
	m.logger.Error("token issuance failed", "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// writeMessage writes msg as a single plain-text line.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	io.WriteString(w, lineBreaks.Replace(msg)+"\n")
}
