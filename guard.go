package dragonball

// GuardDecision is the outcome of evaluating a protected view against the
// current session.
type GuardDecision int

const (
	// DecisionSuspend renders nothing; restoration is still in flight.
	DecisionSuspend GuardDecision = iota
	// DecisionRender lets the protected content through.
	DecisionRender
	// DecisionRedirectLogin sends the visitor to the login view.
	DecisionRedirectLogin
	// DecisionRedirectForbidden sends an authenticated visitor without the
	// required role to the forbidden view.
	DecisionRedirectForbidden
)

func (d GuardDecision) String() string {
	switch d {
	case DecisionSuspend:
		return "suspend"
	case DecisionRender:
		return "render"
	case DecisionRedirectLogin:
		return "redirect:login"
	case DecisionRedirectForbidden:
		return "redirect:forbidden"
	default:
		return "unknown"
	}
}

// Decide maps a session snapshot and an optional required role to a
// navigation outcome. It has no side effects and must be re-evaluated
// whenever the session or the requirement changes.
//
// While the session is loading it always suspends, which guarantees no
// premature redirect can fire before Restore has settled.
func Decide(s Session, required Role) GuardDecision {
	if s.Loading {
		return DecisionSuspend
	}
	if !s.IsAuthenticated {
		return DecisionRedirectLogin
	}
	if required != "" && (s.User == nil || s.User.Role != required) {
		return DecisionRedirectForbidden
	}
	return DecisionRender
}
