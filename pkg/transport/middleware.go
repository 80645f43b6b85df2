package transport

import (
	"context"
	"net/http"
)

// Stage is one step of the request pipeline. Wrap returns a handler that
// either answers the request or passes it to next.
type Stage interface {
	Wrap(next http.Handler) http.Handler
}

// StageFunc adapts a func(http.Handler) http.Handler to a Stage.
type StageFunc func(next http.Handler) http.Handler

// Wrap calls f(next).
func (f StageFunc) Wrap(next http.Handler) http.Handler {
	return f(next)
}

// Pipeline composes stages in order: the first stage is the outermost
// wrapper (runs first on the way in, last on the way out).
type Pipeline struct {
	stages []Stage
}

// NewPipeline returns a pipeline with the given stages. Nil interface values
// are skipped; a non-nil Stage wrapping a nil pointer is kept and must not be
// passed.
func NewPipeline(stages ...Stage) *Pipeline {
	p := &Pipeline{}
	return p.Use(stages...)
}

// Use appends stages to the end of the pipeline, skipping nil interface
// values the same way NewPipeline does.
func (p *Pipeline) Use(stages ...Stage) *Pipeline {
	for _, s := range stages {
		if s != nil {
			p.stages = append(p.stages, s)
		}
	}
	return p
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Then terminates the pipeline with final and returns the composed handler.
// A nil final answers 404 to anything no stage handled.
func (p *Pipeline) Then(final http.Handler) http.Handler {
	if final == nil {
		final = http.NotFoundHandler()
	}
	h := final
	for i := len(p.stages) - 1; i >= 0; i-- {
		h = p.stages[i].Wrap(h)
	}
	return h
}

// requestIDKeyType is the context key type for request IDs.
type requestIDKeyType struct{}

// requestIDKey is the context key for storing and retrieving request IDs.
var requestIDKey = requestIDKeyType{}

// RequestIDFromContext extracts the request ID from the context.
// Returns an empty string if no request ID is set.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithRequestID returns a new context with the given request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}
