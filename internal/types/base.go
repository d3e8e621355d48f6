package types

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Status is the lifecycle status of a persisted record.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)

// BaseModel carries the audit columns shared by all persisted records.
type BaseModel struct {
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

// GetDefaultBaseModel returns a BaseModel for a freshly created record.
func GetDefaultBaseModel() BaseModel {
	now := time.Now().UTC()
	return BaseModel{
		Status:    StatusPublished,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GenerateULID returns a lexicographically sortable unique id. The shared
// monotonic entropy source keeps ids unique within one clock tick.
func GenerateULID() string {
	return ulid.Make().String()
}
