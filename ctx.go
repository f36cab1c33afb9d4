package dragonball

import "context"

var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// WithUserContext sets the authenticated User in the given context.
func WithUserContext(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// UserFromContext finds the user from the context.
func UserFromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}
