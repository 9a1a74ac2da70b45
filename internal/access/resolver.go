// Package access implements project-scoped permission resolution. Every
// project- and task-scoped handler calls the resolver before touching the
// store, so a denied request never has side effects.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFThub/ToDoList/internal/model"

	"github.com/google/uuid"
)

// Level is a required permission level for an operation.
type Level string

const (
	LevelRead          Level = "read"
	LevelWrite         Level = "write"
	LevelDelete        Level = "delete"
	LevelManageMembers Level = "manage_members"
)

// permissionTable maps each level to the collaborator roles that satisfy it.
// The owner bypasses the table entirely.
var permissionTable = map[Level]map[string]bool{
	LevelRead:          {model.RoleViewer: true, model.RoleEditor: true, model.RoleAdmin: true},
	LevelWrite:         {model.RoleEditor: true, model.RoleAdmin: true},
	LevelDelete:        {model.RoleAdmin: true},
	LevelManageMembers: {model.RoleAdmin: true},
}

// ErrNotFound is returned when the target project or task does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is the sentinel all permission denials unwrap to.
var ErrForbidden = errors.New("forbidden")

// ForbiddenError carries the acting user's resolved role for diagnostics.
// Role is empty when the user is not a member of the project at all.
type ForbiddenError struct {
	Role  string
	Level Level
}

func (e *ForbiddenError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("permission %q denied: not a project member", e.Level)
	}
	return fmt.Sprintf("permission %q denied for role %q", e.Level, e.Role)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// Grant is the result of a successful resolution. The loaded project is
// handed to the calling operation so it does not re-fetch.
type Grant struct {
	Role    string
	Project *model.Project
}

// ProjectStore loads projects. Returns (nil, nil) when absent.
type ProjectStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
}

// TaskStore loads tasks. Returns (nil, nil) when absent.
type TaskStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
}

// CollaboratorStore resolves a user's stored role on a project.
// Returns "" when the user has no collaborator entry.
type CollaboratorStore interface {
	GetRole(ctx context.Context, projectID, userID uuid.UUID) (string, error)
}

type Resolver struct {
	projects      ProjectStore
	tasks         TaskStore
	collaborators CollaboratorStore
}

func NewResolver(projects ProjectStore, tasks TaskStore, collaborators CollaboratorStore) *Resolver {
	return &Resolver{
		projects:      projects,
		tasks:         tasks,
		collaborators: collaborators,
	}
}

// ResolveProject decides whether userID may perform an operation requiring
// level on the project.
func (r *Resolver) ResolveProject(ctx context.Context, userID, projectID uuid.UUID, level Level) (*Grant, error) {
	project, err := r.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}

	// Owner check precedes the collaborator lookup: a user who is both
	// owner and collaborator resolves as owner.
	if project.OwnerID == userID {
		return &Grant{Role: model.RoleOwner, Project: project}, nil
	}

	role, err := r.collaborators.GetRole(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	if role == "" {
		// Public projects grant read to any authenticated user, nothing more.
		if level == LevelRead && project.Visibility == model.VisibilityPublic {
			return &Grant{Role: model.RoleViewer, Project: project}, nil
		}
		return nil, &ForbiddenError{Level: level}
	}

	if !permissionTable[level][role] {
		return nil, &ForbiddenError{Role: role, Level: level}
	}
	return &Grant{Role: role, Project: project}, nil
}

// ResolveTask derives the owning project from the task and resolves against
// it. The task itself is returned alongside the grant.
func (r *Resolver) ResolveTask(ctx context.Context, userID, taskID uuid.UUID, level Level) (*Grant, *model.Task, error) {
	task, err := r.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if task == nil {
		return nil, nil, ErrNotFound
	}

	grant, err := r.ResolveProject(ctx, userID, task.ProjectID, level)
	if err != nil {
		return nil, nil, err
	}
	return grant, task, nil
}
