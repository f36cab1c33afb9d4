package dragonball

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// CharacterSummary is the slice of a character record the favourites
// endpoints return. Only ID is required by this package.
type CharacterSummary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name,omitempty"`
	Race     string `json:"race,omitempty"`
	KiPoints int64  `json:"kiPoints,omitempty"`
}

// LoginPayload is the body of POST /api/auth/login.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required),
		validation.Field(&p.Password, validation.Required),
	)
}

// APIClient talks to the character backend. It injects the bearer token from
// its TokenSource into every request and applies the global 401 rule: any
// authenticated call that comes back 401 triggers the session-expired
// handler, regardless of which component issued the call.
type APIClient struct {
	baseURL   string
	http      *http.Client
	logger    Logger
	tokens    TokenSource
	onExpired func(ctx context.Context)
}

var _ Authenticator = (*APIClient)(nil)

// NewAPIClient builds a client for the configured base URL.
func NewAPIClient(cfg Config) *APIClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &APIClient{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  defLogger{},
	}
}

func (c *APIClient) WithLogger(logger Logger) *APIClient {
	c.logger = logger
	return c
}

func (c *APIClient) WithHTTPClient(client *http.Client) *APIClient {
	c.http = client
	return c
}

func (c *APIClient) WithTokenSource(tokens TokenSource) *APIClient {
	c.tokens = tokens
	return c
}

// WithSessionExpiredHandler registers the callback invoked when an
// authenticated call returns 401. Wire SessionManager.HandleSessionExpired
// here.
func (c *APIClient) WithSessionExpiredHandler(fn func(ctx context.Context)) *APIClient {
	c.onExpired = fn
	return c
}

// Authenticate implements Authenticator against POST /api/auth/login.
func (c *APIClient) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	payload := LoginPayload{Username: username, Password: password}
	if err := payload.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login payload")
	}

	result := &AuthResult{}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", payload, result); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "login rejected")
	}

	return result, nil
}

// FetchFavourites returns the character summaries the current session has
// marked favourite, in the order the server sends them.
func (c *APIClient) FetchFavourites(ctx context.Context) ([]CharacterSummary, error) {
	var favourites []CharacterSummary
	if err := c.doJSON(ctx, http.MethodGet, "/api/users/favourites", nil, &favourites); err != nil {
		return nil, err
	}
	return favourites, nil
}

// AddFavourite adds the character to the session's favourites collection.
func (c *APIClient) AddFavourite(ctx context.Context, characterID int64) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/users/favourites/%d", characterID), nil, nil)
}

// RemoveFavourite removes the character from the session's favourites
// collection.
func (c *APIClient) RemoveFavourite(ctx context.Context, characterID int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/users/favourites/%d", characterID), nil, nil)
}

func (c *APIClient) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request body")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	authenticated := false
	if c.tokens != nil {
		if token, ok := c.tokens.BearerToken(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
			authenticated = true
			c.logger.Debug("sending %s %s with bearer token", method, path)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && authenticated {
		c.logger.Info("authenticated call to %s returned 401, expiring session", path)
		if c.onExpired != nil {
			c.onExpired(ctx)
		}
		return sessionExpiredError()
	}

	if resp.StatusCode == http.StatusForbidden {
		c.logger.Warn("missing permission for %s %s", method, path)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return statusError(resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to decode response")
		}
	}

	return nil
}

// statusError classifies a non-2xx response into the error taxonomy the
// favourite toggle surfaces to users.
func statusError(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrAuthRequired
	case http.StatusForbidden:
		return ErrNotPermitted
	case http.StatusNotFound:
		return ErrEntityNotFound
	default:
		return goerrors.New(fmt.Sprintf("unexpected status %d", status), goerrors.CategoryOperation).
			WithCode(status)
	}
}
