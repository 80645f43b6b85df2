package transport

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rhuss/tokengate/pkg/debug"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds client-supplied IDs; longer ones are replaced.
const maxRequestIDLen = 128

// RequestID returns a stage that assigns a request ID to each request. A
// client-supplied X-Request-ID is kept; otherwise a random UUID is
// generated. The ID is stored in the context (see RequestIDFromContext) and
// echoed in the response header.
func RequestID() Stage {
	return StageFunc(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if len(id) > maxRequestIDLen {
				debug.Log(debug.Transport, "client request ID replaced", "length", len(id))
				id = ""
			}
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(ContextWithRequestID(r.Context(), id)))
		})
	})
}
