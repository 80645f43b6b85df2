package issuing

import (
	"log/slog"
	"time"
)

// TokenRequest is the body of a token request.
type TokenRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LogValue keeps credentials out of logs if a request is ever logged.
func (TokenRequest) LogValue() slog.Value {
	return slog.StringValue("[redacted]")
}

// TokenResponse is the body of a successful token response.
// ExpirationDate is null when tokens never expire.
type TokenResponse struct {
	Token          string     `json:"token"`
	ExpirationDate *time.Time `json:"expirationDate"`
}
