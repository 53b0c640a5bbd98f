package object

import (
	"time"

	"github.com/objaverse/platform/pkg/id"
)

type Dimensions struct {
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Depth  *float64 `json:"depth,omitempty"`
}

type Metadata struct {
	Dimensions   *Dimensions `json:"dimensions,omitempty"`
	Origin       string      `json:"origin,omitempty"`
	CreationDate *time.Time  `json:"creation_date,omitempty"`
}

type Image struct {
	ImageID string `json:"image_id"`
	URL     string `json:"url"`
	Angle   string `json:"angle"`
}

type Object3D struct {
	ObjectID    id.ObjectID `json:"object_id"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Metadata    Metadata    `json:"metadata"`
	Images      []Image     `json:"images"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type CreateDTO struct {
	Description string
	Category    string
	Metadata    Metadata
}

type UpdateDTO struct {
	Description *string
	Category    *string
	Metadata    *Metadata
}
