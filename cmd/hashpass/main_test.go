package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rhuss/tokengate/pkg/claims"
)

func TestRun(t *testing.T) {
	var out bytes.Buffer
	if err := run(strings.NewReader("s3cret\n"), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	hash := strings.TrimSpace(out.String())
	ok, err := claims.CheckPassword(hash, "s3cret")
	if err != nil || !ok {
		t.Errorf("CheckPassword(%q) = %v, %v, want true", hash, ok, err)
	}
}

func TestRunEmpty(t *testing.T) {
	if err := run(strings.NewReader("\n"), &bytes.Buffer{}); err == nil {
		t.Error("run with an empty password should fail")
	}
}
