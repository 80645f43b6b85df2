// Package debug provides category-gated debug logging for tokengate.
//
// Categories select WHAT is logged: issuing, claims, auth, transport, or
// all. They come from the TOKENGATE_DEBUG environment variable or the
// logging.debug config field, the environment winning. Records are emitted
// at slog debug level, so the logger level must allow them as well.
//
// Usage:
//
//	debug.Log("auth", "token rejected", "token", debug.Redact(tok, 8))
//	if debug.Enabled("claims") { /* expensive formatting */ }
package debug

import (
	"log/slog"
	"os"
	"sort"
	"strings"
)

// Known categories.
const (
	Issuing   = "issuing"
	Claims    = "claims"
	Auth      = "auth"
	Transport = "transport"
	All       = "all"
)

// categories holds the set of enabled debug categories.
// Access is read-only after Configure, so no synchronization needed.
var categories map[string]bool

func init() {
	categories = parseCategories(os.Getenv("TOKENGATE_DEBUG"))
}

// Configure sets the enabled categories at startup. TOKENGATE_DEBUG, when
// set, overrides the configured list.
func Configure(configCategories string) {
	cats := os.Getenv("TOKENGATE_DEBUG")
	if cats == "" {
		cats = configCategories
	}
	categories = parseCategories(cats)
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	return categories[All] || categories[category]
}

// Log emits a debug record tagged with category. It is a no-op unless the
// category is enabled.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Categories returns the enabled categories in sorted order.
func Categories() []string {
	result := make([]string, 0, len(categories))
	for k := range categories {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

// Redact keeps the first keep bytes of a secret and masks the rest, so a
// token can be correlated in logs without being replayable.
func Redact(s string, keep int) string {
	if s == "" {
		return ""
	}
	if keep < 0 {
		keep = 0
	}
	if len(s) <= keep*2 {
		return "***"
	}
	return s[:keep] + "***"
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
