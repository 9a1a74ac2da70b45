package repository

import "errors"

// Common repository errors
var (
	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")

	// ErrCollaboratorNotFound is returned when a collaborator entry is not found
	ErrCollaboratorNotFound = errors.New("collaborator not found")

	// ErrDuplicateCollaborator is returned when a user is added to a project twice
	ErrDuplicateCollaborator = errors.New("user is already a collaborator on this project")
)
