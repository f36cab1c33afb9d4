package dragonball_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	dragonball "github.com/wisslabs/go-dragonball"
)

// MockAuthenticator implements dragonball.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, username, password string) (*dragonball.AuthResult, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dragonball.AuthResult), args.Error(1)
}

// failingStore wraps a KeyValueStore and fails writes for a chosen key.
type failingStore struct {
	dragonball.KeyValueStore
	failKey string
	err     error
}

func (s *failingStore) Set(key, value string) error {
	if key == s.failKey {
		return s.err
	}
	return s.KeyValueStore.Set(key, value)
}
