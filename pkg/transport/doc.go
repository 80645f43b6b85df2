// Package transport assembles the HTTP request pipeline.
//
// A Pipeline is an ordered list of Stages. Each Stage wraps the next one and
// either answers a request itself or hands it on; the first stage added is
// the outermost. The token issuance middleware, the bearer guard, and the
// built-in stages below all share this shape:
//
//   - Recovery converts handler panics into 500 responses.
//   - RequestID assigns or propagates an X-Request-ID.
//   - Logging emits one structured log record per request via log/slog.
//
// JSON error bodies for resource endpoints are written with WriteError.
package transport
