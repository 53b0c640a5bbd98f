package principal

import (
	"time"

	"github.com/objaverse/platform/pkg/id"
)

type Role string

const (
	RoleResearcher Role = "researcher"
	RoleEvaluator  Role = "evaluator"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleResearcher, RoleEvaluator, RoleAdmin:
		return true
	}
	return false
}

// Principal is an authenticable identity. Password always holds a bcrypt
// hash; credential rotation replaces the hash, never mutates it in place.
type Principal struct {
	ID        int64       `json:"-" db:"id"`
	PublicID  id.PublicID `json:"public_id" db:"public_id"`
	Email     string      `json:"email" db:"email"`
	Password  string      `json:"-" db:"password"`
	Role      Role        `json:"role" db:"role"`
	IsDeleted bool        `json:"-" db:"is_deleted"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"-" db:"updated_at"`
}
