package dragonball_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dragonball "github.com/wisslabs/go-dragonball"
)

func TestDecide(t *testing.T) {
	admin := &dragonball.User{Username: "admin", Role: dragonball.RoleAdmin}
	player := &dragonball.User{Username: "goku", Role: dragonball.RolePlayer}

	tests := []struct {
		name     string
		session  dragonball.Session
		required dragonball.Role
		expected dragonball.GuardDecision
	}{
		{
			"suspends while loading regardless of everything else",
			dragonball.Session{Loading: true, IsAuthenticated: true, Token: "t", User: admin},
			dragonball.RoleAdmin,
			dragonball.DecisionSuspend,
		},
		{
			"anonymous goes to login",
			dragonball.Session{},
			"",
			dragonball.DecisionRedirectLogin,
		},
		{
			"wrong role goes to forbidden",
			dragonball.Session{IsAuthenticated: true, Token: "t", User: player},
			dragonball.RoleAdmin,
			dragonball.DecisionRedirectForbidden,
		},
		{
			"matching role renders",
			dragonball.Session{IsAuthenticated: true, Token: "t", User: admin},
			dragonball.RoleAdmin,
			dragonball.DecisionRender,
		},
		{
			"no requirement renders for any authenticated user",
			dragonball.Session{IsAuthenticated: true, Token: "t", User: player},
			"",
			dragonball.DecisionRender,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, dragonball.Decide(tt.session, tt.required))
		})
	}
}

func TestGuardDecisionString(t *testing.T) {
	assert.Equal(t, "suspend", dragonball.DecisionSuspend.String())
	assert.Equal(t, "render", dragonball.DecisionRender.String())
	assert.Equal(t, "redirect:login", dragonball.DecisionRedirectLogin.String())
	assert.Equal(t, "redirect:forbidden", dragonball.DecisionRedirectForbidden.String())
}
