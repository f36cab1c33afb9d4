package dragonball

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the advisory payload decoded from a bearer token. The
// signature is never checked on this side: the server remains the only
// authorization boundary, and these values feed UI gating exclusively.
type TokenClaims struct {
	// Subject is the "sub" claim, the username the token was issued for.
	Subject string
	// Roles is the raw comma-separated "roles" claim.
	Roles string
	// UserID is the "userId" claim when present.
	UserID string
}

// IsZero reports whether no claim of interest was decoded.
func (c TokenClaims) IsZero() bool {
	return c == TokenClaims{}
}

// DecodeToken extracts the claims of interest from a three-segment bearer
// token without verifying it. Any malformed input (wrong segment count, bad
// base64, non-JSON payload) yields zero claims; callers must never fail a
// login or restoration because a token is unreadable.
func DecodeToken(token string) TokenClaims {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenClaims{}
	}

	return TokenClaims{
		Subject: stringClaim(claims, "sub"),
		Roles:   stringClaim(claims, "roles"),
		UserID:  stringClaim(claims, "userId"),
	}
}

// stringClaim tolerates numeric claim values, which some issuers use for ids.
func stringClaim(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
