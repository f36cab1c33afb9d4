package dragonball

import (
	"context"
	"encoding/json"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// User is the client-side user record derived at login time.
type User struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	UserID   string `json:"userId,omitempty"`
}

// Session is a snapshot of the client's authentication state.
//
// Invariant: IsAuthenticated == (Token != "" && User != nil). Token and user
// are adopted and cleared together, never independently. Loading is true only
// during the restoration window at process start and is cleared exactly once.
type Session struct {
	Token           string
	User            *User
	IsAuthenticated bool
	Loading         bool
}

// SessionManager owns the session record; it is the record's only writer.
// Every other component reads snapshots through Current.
type SessionManager struct {
	store    KeyValueStore
	auth     Authenticator
	logger   Logger
	teardown TeardownFunc

	mu          sync.Mutex
	session     Session
	restoreOnce sync.Once
}

var _ TokenSource = (*SessionManager)(nil)

// NewSessionManager returns a manager in the INITIALIZING state. Call
// Restore once at process start before evaluating any route guard.
func NewSessionManager(store KeyValueStore, auth Authenticator) *SessionManager {
	return &SessionManager{
		store:   store,
		auth:    auth,
		logger:  defLogger{},
		session: Session{Loading: true},
	}
}

func (m *SessionManager) WithLogger(logger Logger) *SessionManager {
	m.logger = logger
	return m
}

// WithTeardown registers the collaborator notified after logout or forced
// expiry, typically to navigate the host back to the login view.
func (m *SessionManager) WithTeardown(fn TeardownFunc) *SessionManager {
	m.teardown = fn
	return m
}

// Current returns a copy of the session record.
func (m *SessionManager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// snapshot copies the record so readers never share the User pointer with
// the writer. Callers must hold m.mu.
func (m *SessionManager) snapshot() Session {
	s := m.session
	if s.User != nil {
		user := *s.User
		s.User = &user
	}
	return s
}

// BearerToken implements TokenSource for the API client.
func (m *SessionManager) BearerToken() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Token, m.session.Token != ""
}

// Restore adopts a persisted session, if any, and ends the restoration
// window. It runs at most once; later calls are no-ops.
func (m *SessionManager) Restore() {
	m.restoreOnce.Do(m.restore)
}

func (m *SessionManager) restore() {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() {
		m.session.Loading = false
	}()

	token, hasToken := m.store.Get(StorageKeyToken)
	raw, hasUser := m.store.Get(StorageKeyUser)
	if !hasToken || !hasUser || token == "" {
		m.logger.Debug("no persisted session, starting anonymous")
		return
	}

	user := &User{}
	if err := json.Unmarshal([]byte(raw), user); err != nil {
		m.logger.Warn("persisted user record unreadable, starting anonymous: %v", err)
		return
	}
	// Stored records may predate role normalization.
	user.Role = NormalizeRole(string(user.Role))

	m.session.Token = token
	m.session.User = user
	m.session.IsAuthenticated = true
	m.logger.Info("restored session for %q", user.Username)
}

// Login verifies credentials through the Authenticator, derives the user
// record from the response and the token claims, then adopts and persists
// token and user together. On any failure the session is left untouched and
// the error propagates to the caller.
//
// Concurrent logins are not serialized; the last call to complete wins.
// Hosts should disable the submitting control while a call is outstanding.
func (m *SessionManager) Login(ctx context.Context, username, password string) error {
	result, err := m.auth.Authenticate(ctx, username, password)
	if err != nil {
		m.logger.Error("login failed for %q: %v", username, err)
		return err
	}

	if result == nil || result.Token == "" {
		return ErrMissingToken
	}

	claims := DecodeToken(result.Token)

	user := &User{
		Username: result.Username,
		Role:     ResolveRole(result.Role, claims.Roles, claims.Subject),
		UserID:   result.UserID,
	}
	if user.Username == "" {
		user.Username = claims.Subject
	}
	if user.UserID == "" {
		user.UserID = claims.UserID
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to serialize user record")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(StorageKeyToken, result.Token); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist token")
	}
	if err := m.store.Set(StorageKeyUser, string(payload)); err != nil {
		// Keep the two keys paired even on a partial write.
		if rerr := m.store.Remove(StorageKeyToken); rerr != nil {
			m.logger.Error("failed to roll back token key: %v", rerr)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist user record")
	}

	m.session.Token = result.Token
	m.session.User = user
	m.session.IsAuthenticated = true
	m.logger.Info("login succeeded for %q role=%s", user.Username, user.Role)

	return nil
}

// Logout clears the persisted keys, resets the record, and notifies the
// teardown collaborator.
func (m *SessionManager) Logout(ctx context.Context) {
	m.clear(ctx, "logout")
}

// HandleSessionExpired is the global 401 handler: wire it to
// APIClient.WithSessionExpiredHandler so any authenticated call that comes
// back 401 clears the persisted session and sends the host to login.
func (m *SessionManager) HandleSessionExpired(ctx context.Context) {
	m.clear(ctx, "session expired")
}

func (m *SessionManager) clear(ctx context.Context, reason string) {
	m.mu.Lock()
	if err := m.store.Remove(StorageKeyToken); err != nil {
		m.logger.Error("failed to remove token key: %v", err)
	}
	if err := m.store.Remove(StorageKeyUser); err != nil {
		m.logger.Error("failed to remove user key: %v", err)
	}

	loading := m.session.Loading
	m.session = Session{Loading: loading}
	m.mu.Unlock()

	m.logger.Info("session cleared (%s)", reason)

	if m.teardown != nil {
		m.teardown(ctx)
	}
}
