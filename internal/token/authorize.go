package token

import "github.com/objaverse/platform/internal/principal"

// Authorize reports whether the claims carry sufficient privilege for the
// required role. Admin satisfies every requirement; other roles must match
// exactly. Pure function, no side effects.
func Authorize(claims *Claims, required principal.Role) bool {
	if claims == nil {
		return false
	}
	if claims.Role == principal.RoleAdmin {
		return true
	}
	return claims.Role == required
}
