package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Project visibility controls whether non-members get read access.
const (
	VisibilityPrivate = "private"
	VisibilityTeam    = "team"
	VisibilityPublic  = "public"
)

// CustomStatus is one entry of a project's task-status vocabulary.
type CustomStatus struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// StatusList is an ordered status vocabulary stored as jsonb.
type StatusList []CustomStatus

func (s StatusList) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *StatusList) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	case nil:
		*s = nil
		return nil
	}
	return errors.New("unsupported type for StatusList")
}

// Contains reports whether label is part of the vocabulary.
func (s StatusList) Contains(label string) bool {
	for _, st := range s {
		if st.Label == label {
			return true
		}
	}
	return false
}

// DefaultStatuses is the vocabulary assigned to projects created without one.
func DefaultStatuses() StatusList {
	return StatusList{
		{Label: "Todo", Color: "#808080"},
		{Label: "In Progress", Color: "#007bff"},
		{Label: "Done", Color: "#28a745"},
	}
}

type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title       string    `gorm:"not null"`
	Description string
	Category    string    `gorm:"not null;default:'General'"`
	Color       string    `gorm:"not null;default:'#6366f1'"`
	Visibility  string    `gorm:"not null;default:'private';check:visibility IN ('private', 'team', 'public')"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index"`

	// CustomStatuses defines the valid task-status vocabulary for this
	// project. Must contain at least one entry.
	CustomStatuses StatusList `gorm:"type:jsonb;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Owner User `gorm:"foreignKey:OwnerID"`
}
