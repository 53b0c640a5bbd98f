package token

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/objaverse/platform/internal/principal"
	"github.com/objaverse/platform/pkg/id"
)

type Claims struct {
	Sub  id.PublicID    `json:"sub"`
	Role principal.Role `json:"role"`
	jwt.RegisteredClaims
}
