package model

import (
	"time"

	"github.com/google/uuid"
)

// Collaborator links a non-owner user to a project with a role.
// A user may hold at most one role per project.
type Collaborator struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_collaborators_project_user"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_collaborators_project_user"`
	Role      string    `gorm:"not null;check:role IN ('admin', 'editor', 'viewer')"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Project Project `gorm:"foreignKey:ProjectID"`
	User    User    `gorm:"foreignKey:UserID"`
}

// Roles a user can hold on a project. Owner is implicit: it is never stored
// in the collaborators table and grants every permission level.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"  // full control, including membership management
	RoleEditor = "editor" // may create and update tasks
	RoleViewer = "viewer" // read-only
)

// ValidCollaboratorRole reports whether role may be stored on a collaborator.
func ValidCollaboratorRole(role string) bool {
	return role == RoleAdmin || role == RoleEditor || role == RoleViewer
}
