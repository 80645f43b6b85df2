package redis

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/rhuss/tokengate/pkg/claims"
	"github.com/rhuss/tokengate/pkg/debug"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	s := NewWithClient(client, "test:")
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func putAlice(t *testing.T, s *Store) {
	t.Helper()
	hash, err := claims.HashPassword("correct")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	err = s.PutUser(context.Background(), claims.User{
		Login:        "alice",
		PasswordHash: hash,
		Claims:       []claims.Claim{{Type: "sub", Value: "alice"}, {Type: "role", Value: "admin"}},
	})
	if err != nil {
		t.Fatalf("PutUser: %v", err)
	}
}

func TestResolve(t *testing.T) {
	s, _ := newTestStore(t)
	putAlice(t, s)
	ctx := context.Background()

	tests := []struct {
		name        string
		login       string
		password    string
		wantOutcome claims.Outcome
		wantMessage string
	}{
		{"success", "alice", "correct", claims.Resolved, ""},
		{"unknown login", "bob", "x", claims.LoginNotFound, "no such user: bob"},
		{"wrong password", "alice", "nope", claims.IncorrectPassword, "incorrect password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := s.Resolve(ctx, tt.login, tt.password)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if r.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %v, want %v", r.Outcome, tt.wantOutcome)
			}
			if r.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", r.Message, tt.wantMessage)
			}
		})
	}

	r, _ := s.Resolve(ctx, "alice", "correct")
	if len(r.Claims) != 2 || r.Claims[1] != (claims.Claim{Type: "role", Value: "admin"}) {
		t.Errorf("Claims = %+v", r.Claims)
	}
}

func TestKeyLayout(t *testing.T) {
	s, mr := newTestStore(t)
	putAlice(t, s)

	if !mr.Exists("test:user:alice") {
		t.Fatal("expected key test:user:alice")
	}
	if got := mr.HGet("test:user:alice", "claims"); got != `[{"type":"sub","value":"alice"},{"type":"role","value":"admin"}]` {
		t.Errorf("claims field = %s", got)
	}
}

func TestResolve_CorruptClaims(t *testing.T) {
	s, mr := newTestStore(t)
	mr.HSet("test:user:eve", "password_hash", "$2a$10$x", "claims", "{not json")

	if _, err := s.Resolve(context.Background(), "eve", "x"); err == nil {
		t.Error("expected error for corrupt claims")
	}
}

func TestResolve_BackendDown(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	if _, err := s.Resolve(context.Background(), "alice", "correct"); err == nil {
		t.Error("expected error when redis is unreachable")
	}
}

func TestPutUser_Replaces(t *testing.T) {
	s, _ := newTestStore(t)
	putAlice(t, s)
	ctx := context.Background()

	hash, _ := claims.HashPassword("rotated")
	if err := s.PutUser(ctx, claims.User{Login: "alice", PasswordHash: hash}); err != nil {
		t.Fatalf("PutUser: %v", err)
	}

	r, err := s.Resolve(ctx, "alice", "rotated")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Outcome != claims.Resolved || len(r.Claims) != 0 {
		t.Errorf("got %+v, want resolved with no claims", r)
	}
}

func TestPutUser_Invalid(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.PutUser(context.Background(), claims.User{Login: ""})
	if !errors.Is(err, claims.ErrInvalidUser) {
		t.Errorf("error = %v, want ErrInvalidUser", err)
	}
}

func TestDeleteUser(t *testing.T) {
	s, mr := newTestStore(t)
	putAlice(t, s)

	if err := s.DeleteUser(context.Background(), "alice"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if mr.Exists("test:user:alice") {
		t.Error("key still present after DeleteUser")
	}
}

func TestNew_Ping(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := New(context.Background(), Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if s.prefix != "tokengate:" {
		t.Errorf("prefix = %q, want default", s.prefix)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestResolve_LoginNotLogged(t *testing.T) {
	t.Setenv("TOKENGATE_DEBUG", "")
	debug.Configure(debug.Claims)
	orig := slog.Default()
	t.Cleanup(func() {
		debug.Configure("")
		slog.SetDefault(orig)
	})
	var logs bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	s, mr := newTestStore(t)
	mr.HSet("test:user:corrupt-secret-login", "password_hash", "$2a$10$x", "claims", "{not json")

	s.Resolve(context.Background(), "unknown-secret-login", "x")
	_, err := s.Resolve(context.Background(), "corrupt-secret-login", "x")
	if err == nil {
		t.Fatal("expected error for corrupt claims")
	}

	if !strings.Contains(logs.String(), "redis user lookup") {
		t.Fatalf("debug records missing, got: %s", logs.String())
	}
	for _, login := range []string{"unknown-secret-login", "corrupt-secret-login"} {
		if strings.Contains(logs.String(), login) {
			t.Errorf("login %q appeared in logs: %s", login, logs.String())
		}
	}
	if strings.Contains(err.Error(), "corrupt-secret-login") {
		t.Errorf("error %q carries the login", err)
	}
}
