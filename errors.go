package dragonball

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeMissingToken   = "LOGIN_RESPONSE_MISSING_TOKEN"
	textCodeSessionExpired = "SESSION_EXPIRED"
	textCodeAuthRequired   = "AUTH_REQUIRED"
	textCodeNotPermitted   = "NOT_PERMITTED"
	textCodeEntityNotFound = "ENTITY_NOT_FOUND"
	textCodeToggleInFlight = "TOGGLE_IN_FLIGHT"
)

// ErrMissingToken is returned when a login succeeds at the HTTP level but the
// response carries no token.
var ErrMissingToken = goerrors.New("login response missing token", goerrors.CategoryAuth).
	WithTextCode(textCodeMissingToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionExpired is returned after an authenticated call came back 401 and
// the persisted session was cleared.
var ErrSessionExpired = goerrors.New("session expired", goerrors.CategoryAuth).
	WithTextCode(textCodeSessionExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrAuthRequired is the classification for a 401 response.
var ErrAuthRequired = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode(textCodeAuthRequired).
	WithCode(goerrors.CodeUnauthorized)

// ErrNotPermitted is the classification for a 403 response.
var ErrNotPermitted = goerrors.New("not permitted", goerrors.CategoryAuthz).
	WithTextCode(textCodeNotPermitted).
	WithCode(goerrors.CodeForbidden)

// ErrEntityNotFound is the classification for a 404 response.
var ErrEntityNotFound = goerrors.New("entity not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeEntityNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrToggleInFlight is returned when a favourite toggle for an id is requested
// while an earlier toggle for the same id is still outstanding.
var ErrToggleInFlight = goerrors.New("favourite toggle already in flight", goerrors.CategoryConflict).
	WithTextCode(textCodeToggleInFlight).
	WithCode(goerrors.CodeConflict)

// IsSessionExpiredError reports whether err represents a forced session expiry.
func IsSessionExpiredError(err error) bool {
	return goerrors.Is(err, ErrSessionExpired)
}

// sessionExpiredError keeps the 401 classification the initiating caller
// displays ("authentication required") while marking the forced expiry so
// IsSessionExpiredError still matches.
func sessionExpiredError() error {
	clone := ErrAuthRequired.Clone()
	if clone == nil {
		return ErrSessionExpired
	}
	clone.Source = ErrSessionExpired
	return clone
}
