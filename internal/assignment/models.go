package assignment

import (
	"time"

	"github.com/objaverse/platform/pkg/id"
)

// Assignment links an evaluator to one object they are expected to review.
type Assignment struct {
	EvaluatorID id.PublicID `json:"evaluator_id"`
	ObjectID    id.ObjectID `json:"object_id"`
	AssignedAt  time.Time   `json:"assigned_at"`
}
