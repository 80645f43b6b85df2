// Package client is a small Go client for a tokengate server: it requests
// tokens from the issuance endpoint and calls bearer-protected resources
// with them.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/tokengate/pkg/transport"
)

// DefaultTimeout applies when no HTTP client is supplied.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is kept in a StatusError.
const maxErrorBody = 4 << 10

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	// Body is the trimmed response body. For JSON error envelopes the
	// decoded error is in API as well.
	Body string
	API  *transport.APIError
}

func (e *StatusError) Error() string {
	msg := e.Body
	if e.API != nil {
		msg = e.API.Message
	}
	if msg == "" {
		return fmt.Sprintf("client: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("client: unexpected status %d: %s", e.StatusCode, msg)
}

// Option configures a Base.
type Option func(*Base)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(b *Base) {
		if hc != nil {
			b.httpClient = hc
		}
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(b *Base) { b.token = token }
}

// Base performs JSON requests against a base URL.
type Base struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// New creates a Base for baseURL. A trailing slash is ignored.
func New(baseURL string, opts ...Option) *Base {
	b := &Base{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithToken returns a copy of b that authenticates with token.
func (b *Base) WithToken(token string) *Base {
	cp := *b
	cp.token = token
	return &cp
}

// Get decodes the JSON response for path into out.
func (b *Base) Get(ctx context.Context, path string, out any) (int, error) {
	return b.Do(ctx, http.MethodGet, path, nil, out)
}

// Put sends in as JSON and decodes the response into out when both are set.
func (b *Base) Put(ctx context.Context, path string, in, out any) (int, error) {
	return b.Do(ctx, http.MethodPut, path, in, out)
}

// Post sends in as JSON and decodes the response into out when both are set.
func (b *Base) Post(ctx context.Context, path string, in, out any) (int, error) {
	return b.Do(ctx, http.MethodPost, path, in, out)
}

// Delete removes the resource at path.
func (b *Base) Delete(ctx context.Context, path string) (int, error) {
	return b.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do sends one request and returns the response status. Non-2xx responses
// yield a *StatusError. A nil out discards the response body.
func (b *Base) Do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("client: encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("client: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, newStatusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return resp.StatusCode, fmt.Errorf("client: decoding response: %w", err)
	}
	return resp.StatusCode, nil
}

func newStatusError(resp *http.Response) *StatusError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	e := &StatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(data)),
	}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var env transport.ErrorResponse
		if json.Unmarshal(data, &env) == nil && env.Error != nil {
			e.API = env.Error
		}
	}
	return e
}
