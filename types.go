package dragonball

import (
	"context"
	"fmt"
)

// Logger is the minimal logging surface the package needs. Consumers can
// plug in their own implementation via the With* builders.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Storage keys shared by SessionManager and the global 401 handler. Both
// keys are always written and removed together.
const (
	StorageKeyToken = "authToken"
	StorageKeyUser  = "userData"
)

// KeyValueStore is a synchronous, local string store that survives process
// restarts. Implementations live in the store subpackage.
type KeyValueStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// AuthResult is what an Authenticator returns on a successful login.
// Only Token is guaranteed to be present; the remaining fields are filled
// from the token claims when the server omits them.
type AuthResult struct {
	Token    string `json:"token"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	UserID   string `json:"userId,omitempty"`
}

// Authenticator verifies credentials against the backend. APIClient is the
// production implementation.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*AuthResult, error)
}

// TokenSource supplies the bearer token for outgoing requests.
// SessionManager implements it.
type TokenSource interface {
	BearerToken() (string, bool)
}

// TeardownFunc runs after a session ends, either through an explicit logout
// or a forced expiry. Hosts use it to drop view caches and navigate to the
// login view.
type TeardownFunc func(ctx context.Context)

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] DBZ "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] DBZ "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] DBZ "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] DBZ "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
