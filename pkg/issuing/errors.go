package issuing

import "errors"

// ConfigurationError reports invalid or missing signing configuration.
// It is returned at startup and never for an individual request.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "issuing: invalid " + e.Field + ": " + e.Reason
}

func configErr(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

// Sentinel errors.
var (
	// ErrUnknownOutcome is passed to the ErrorHandler when a resolver returns
	// an outcome the middleware does not know how to answer.
	ErrUnknownOutcome = errors.New("unknown resolver outcome")

	// errTrailingData marks a request body with content after the JSON object.
	errTrailingData = errors.New("unexpected data after request object")
)
