package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Task priorities.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
	PriorityUrgent = "Urgent"
)

// StringList is a tag set stored as jsonb.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	}
	return errors.New("unsupported type for StringList")
}

type Task struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"not null"`

	Description string

	// Status must be one of the owning project's custom-status labels.
	Status   string `gorm:"not null"`
	Priority string `gorm:"not null;default:'Medium';check:priority IN ('Low', 'Medium', 'High', 'Urgent')"`

	StartDate *time.Time
	DueDate   *time.Time

	// ParentTaskID forms the subtask tree. Deleting a task cascades over
	// the whole subtree.
	ParentTaskID *uuid.UUID `gorm:"type:uuid;index"`

	Tags     StringList `gorm:"type:jsonb;not null;default:'[]'"`
	Progress int        `gorm:"not null;default:0;check:progress >= 0 AND progress <= 100"`

	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Project   Project `gorm:"foreignKey:ProjectID"`
	Creator   User    `gorm:"foreignKey:CreatedBy"`
	Assignees []User  `gorm:"many2many:task_assignees"`
}

// ValidPriority reports whether p is an accepted priority value.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh || p == PriorityUrgent
}
