// Package integration provides end-to-end tests for the tokengate server.
//
// Tests run against the fully assembled handler (pipeline, issuance
// middleware, bearer guard, values resource) served in-process with
// net/http/httptest and a seeded in-memory claims store.
package integration

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rhuss/tokengate/pkg/claims"
	"github.com/rhuss/tokengate/pkg/claims/memory"
	"github.com/rhuss/tokengate/pkg/client"
	"github.com/rhuss/tokengate/pkg/config"
	"github.com/rhuss/tokengate/pkg/server"
)

const (
	tokenEndpoint = "/api/token"
	apiKey        = "integration-api-key"
)

// testEnv holds the shared server for all integration tests.
var testEnv *TestEnvironment

// TestEnvironment holds the running tokengate server.
type TestEnvironment struct {
	Server *httptest.Server
	App    *server.Server
}

// TestMain starts the server before running tests.
func TestMain(m *testing.M) {
	testEnv = setupTestEnvironment()
	code := m.Run()
	testEnv.Teardown()
	os.Exit(code)
}

func setupTestEnvironment() *TestEnvironment {
	store, err := memory.New(
		mustUser("alice", "wonderland",
			claims.Claim{Type: "sub", Value: "alice"},
			claims.Claim{Type: "role", Value: "admin"},
			claims.Claim{Type: "role", Value: "ops"},
		),
		mustUser("bob", "builder", claims.Claim{Type: "sub", Value: "bob"}),
		mustUser("nosub", "secret", claims.Claim{Type: "email", Value: "nosub@example.com"}),
	)
	if err != nil {
		panic(fmt.Sprintf("seeding store: %v", err))
	}

	cfg := config.Defaults()
	cfg.Issuing.Key = "integration-signing-secret-0123456789"
	cfg.Issuing.Lifetime = 30 * time.Minute
	cfg.Auth.APIKeys = []config.APIKeyConfig{{Subject: "ci", Key: apiKey}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := server.NewWithResolver(&cfg, logger, store)
	if err != nil {
		panic(fmt.Sprintf("assembling server: %v", err))
	}

	return &TestEnvironment{
		Server: httptest.NewServer(app.Handler()),
		App:    app,
	}
}

func mustUser(login, password string, cs ...claims.Claim) claims.User {
	hash, err := claims.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return claims.User{Login: login, PasswordHash: hash, Claims: cs}
}

// BaseURL returns the server's base URL.
func (e *TestEnvironment) BaseURL() string {
	return e.Server.URL
}

// Client returns an unauthenticated client for the server.
func (e *TestEnvironment) Client() *client.Base {
	return client.New(e.Server.URL)
}

// Teardown stops the server.
func (e *TestEnvironment) Teardown() {
	e.Server.Close()
	e.App.Close()
}

// postRaw sends body to path with the given content type.
func postRaw(t *testing.T, path, contentType, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(testEnv.BaseURL()+path, contentType, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// getURL sends a GET request with an optional bearer token.
func getURL(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

// readBody reads and returns the full response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(data)
}
