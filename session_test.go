package dragonball_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	dragonball "github.com/wisslabs/go-dragonball"
	"github.com/wisslabs/go-dragonball/store"
)

func assertSessionInvariant(t *testing.T, s dragonball.Session) {
	t.Helper()
	assert.Equal(t, s.Token != "" && s.User != nil, s.IsAuthenticated,
		"IsAuthenticated must equal (token set && user set)")
}

func TestSessionManagerInitialState(t *testing.T) {
	manager := dragonball.NewSessionManager(store.NewMemory(), &MockAuthenticator{})

	session := manager.Current()
	assert.True(t, session.Loading)
	assert.False(t, session.IsAuthenticated)
	assert.Nil(t, session.User)
	assertSessionInvariant(t, session)
}

func TestRestoreWithoutPersistedSession(t *testing.T) {
	manager := dragonball.NewSessionManager(store.NewMemory(), &MockAuthenticator{})
	manager.Restore()

	session := manager.Current()
	assert.False(t, session.Loading)
	assert.False(t, session.IsAuthenticated)
	assertSessionInvariant(t, session)
}

func TestRestoreAdoptsPersistedSession(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(dragonball.StorageKeyToken, mintToken(t, jwt.MapClaims{"sub": "goku"})))
	require.NoError(t, kv.Set(dragonball.StorageKeyUser, `{"username":"goku","role":"ROLE_player","userId":"7"}`))

	manager := dragonball.NewSessionManager(kv, &MockAuthenticator{})
	manager.Restore()

	session := manager.Current()
	assert.False(t, session.Loading)
	assert.True(t, session.IsAuthenticated)
	require.NotNil(t, session.User)
	assert.Equal(t, "goku", session.User.Username)
	// Stored roles are re-normalized on the way in.
	assert.Equal(t, dragonball.RolePlayer, session.User.Role)
	assert.Equal(t, "7", session.User.UserID)
	assertSessionInvariant(t, session)
}

func TestRestoreWithCorruptUserRecord(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(dragonball.StorageKeyToken, "some-token"))
	require.NoError(t, kv.Set(dragonball.StorageKeyUser, "{not valid json"))

	manager := dragonball.NewSessionManager(kv, &MockAuthenticator{})
	manager.Restore()

	session := manager.Current()
	assert.False(t, session.Loading)
	assert.False(t, session.IsAuthenticated)
	assertSessionInvariant(t, session)
}

func TestRestoreRunsOnce(t *testing.T) {
	kv := store.NewMemory()
	manager := dragonball.NewSessionManager(kv, &MockAuthenticator{})
	manager.Restore()

	// A session persisted after the restoration window must not be adopted
	// by a second Restore call.
	require.NoError(t, kv.Set(dragonball.StorageKeyToken, "late-token"))
	require.NoError(t, kv.Set(dragonball.StorageKeyUser, `{"username":"late","role":"PLAYER"}`))
	manager.Restore()

	assert.False(t, manager.Current().IsAuthenticated)
}

func TestLoginSuccessPersistsAndRestores(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{
		"sub":    "goku",
		"roles":  "ROLE_PLAYER",
		"userId": "7",
	})

	auther := &MockAuthenticator{}
	auther.On("Authenticate", mock.Anything, "goku", "kamehameha").
		Return(&dragonball.AuthResult{Token: token}, nil)

	kv := store.NewMemory()
	manager := dragonball.NewSessionManager(kv, auther)
	manager.Restore()

	require.NoError(t, manager.Login(context.Background(), "goku", "kamehameha"))

	session := manager.Current()
	assert.True(t, session.IsAuthenticated)
	assert.Equal(t, token, session.Token)
	require.NotNil(t, session.User)
	assert.Equal(t, "goku", session.User.Username)
	assert.Equal(t, dragonball.RolePlayer, session.User.Role)
	assert.Equal(t, "7", session.User.UserID)
	assertSessionInvariant(t, session)

	// A fresh manager over the same store reproduces an equivalent session.
	restored := dragonball.NewSessionManager(kv, &MockAuthenticator{})
	restored.Restore()

	again := restored.Current()
	assert.Equal(t, session.Token, again.Token)
	assert.Equal(t, session.User, again.User)
	assert.True(t, again.IsAuthenticated)
	assertSessionInvariant(t, again)

	auther.AssertExpectations(t)
}

func TestLoginPrefersResponseFieldsOverClaims(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{
		"sub":    "kakarot",
		"roles":  "ROLE_PLAYER",
		"userId": "claim-id",
	})

	auther := &MockAuthenticator{}
	auther.On("Authenticate", mock.Anything, "goku", "pw").
		Return(&dragonball.AuthResult{
			Token:    token,
			Username: "goku",
			Role:     "ADMIN",
			UserID:   "response-id",
		}, nil)

	manager := dragonball.NewSessionManager(store.NewMemory(), auther)
	manager.Restore()
	require.NoError(t, manager.Login(context.Background(), "goku", "pw"))

	user := manager.Current().User
	require.NotNil(t, user)
	assert.Equal(t, "goku", user.Username)
	assert.Equal(t, dragonball.RoleAdmin, user.Role)
	assert.Equal(t, "response-id", user.UserID)
}

func TestLoginFailureLeavesSessionUnchanged(t *testing.T) {
	authErr := errors.New("bad credentials")
	auther := &MockAuthenticator{}
	auther.On("Authenticate", mock.Anything, "goku", "wrong").Return(nil, authErr)

	kv := store.NewMemory()
	manager := dragonball.NewSessionManager(kv, auther)
	manager.Restore()

	err := manager.Login(context.Background(), "goku", "wrong")
	assert.ErrorIs(t, err, authErr)

	session := manager.Current()
	assert.False(t, session.IsAuthenticated)
	assertSessionInvariant(t, session)

	_, hasToken := kv.Get(dragonball.StorageKeyToken)
	assert.False(t, hasToken)
}

func TestLoginMissingToken(t *testing.T) {
	auther := &MockAuthenticator{}
	auther.On("Authenticate", mock.Anything, "goku", "pw").
		Return(&dragonball.AuthResult{}, nil)

	manager := dragonball.NewSessionManager(store.NewMemory(), auther)
	manager.Restore()

	err := manager.Login(context.Background(), "goku", "pw")
	assert.ErrorIs(t, err, dragonball.ErrMissingToken)
	assert.False(t, manager.Current().IsAuthenticated)
}

func TestLoginPersistFailureRollsBackTokenKey(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{"sub": "goku"})
	auther := &MockAuthenticator{}
	auther.On("Authenticate", mock.Anything, "goku", "pw").
		Return(&dragonball.AuthResult{Token: token}, nil)

	kv := store.NewMemory()
	broken := &failingStore{
		KeyValueStore: kv,
		failKey:       dragonball.StorageKeyUser,
		err:           errors.New("disk full"),
	}

	manager := dragonball.NewSessionManager(broken, auther)
	manager.Restore()

	err := manager.Login(context.Background(), "goku", "pw")
	assert.Error(t, err)
	assert.False(t, manager.Current().IsAuthenticated)

	// The token key must not be observable without its paired user key.
	_, hasToken := kv.Get(dragonball.StorageKeyToken)
	assert.False(t, hasToken)
}

func TestLogoutClearsEverything(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{"sub": "goku", "roles": "ROLE_PLAYER"})
	auther := &MockAuthenticator{}
	auther.On("Authenticate", mock.Anything, "goku", "pw").
		Return(&dragonball.AuthResult{Token: token}, nil)

	kv := store.NewMemory()
	tornDown := false
	manager := dragonball.NewSessionManager(kv, auther).
		WithTeardown(func(ctx context.Context) { tornDown = true })
	manager.Restore()
	require.NoError(t, manager.Login(context.Background(), "goku", "pw"))

	manager.Logout(context.Background())

	session := manager.Current()
	assert.False(t, session.IsAuthenticated)
	assert.Empty(t, session.Token)
	assert.Nil(t, session.User)
	assert.False(t, session.Loading)
	assertSessionInvariant(t, session)
	assert.True(t, tornDown)

	_, hasToken := kv.Get(dragonball.StorageKeyToken)
	_, hasUser := kv.Get(dragonball.StorageKeyUser)
	assert.False(t, hasToken)
	assert.False(t, hasUser)
}

func TestBearerToken(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(dragonball.StorageKeyToken, "token-123"))
	require.NoError(t, kv.Set(dragonball.StorageKeyUser, `{"username":"goku","role":"PLAYER"}`))

	manager := dragonball.NewSessionManager(kv, &MockAuthenticator{})

	_, ok := manager.BearerToken()
	assert.False(t, ok, "no token before restore")

	manager.Restore()
	token, ok := manager.BearerToken()
	assert.True(t, ok)
	assert.Equal(t, "token-123", token)
}

func TestCurrentReturnsACopy(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(dragonball.StorageKeyToken, "token-123"))
	require.NoError(t, kv.Set(dragonball.StorageKeyUser, `{"username":"goku","role":"PLAYER"}`))

	manager := dragonball.NewSessionManager(kv, &MockAuthenticator{})
	manager.Restore()

	snapshot := manager.Current()
	require.NotNil(t, snapshot.User)
	snapshot.User.Role = dragonball.RoleAdmin

	assert.Equal(t, dragonball.RolePlayer, manager.Current().User.Role,
		"mutating a snapshot must not affect the session record")
}
