package id

import "github.com/google/uuid"

// PublicID is the externally visible identifier of a principal. Internal
// numeric ids never leave the process.
type PublicID string

// TokenID is the jti claim of an issued token; denylist entries key on it.
type TokenID string

// ObjectID identifies a 3D object record.
type ObjectID string

func NewPublicID() PublicID {
	return PublicID(uuid.NewString())
}

func NewTokenID() TokenID {
	return TokenID(uuid.NewString())
}

func NewObjectID() ObjectID {
	return ObjectID(uuid.NewString())
}
