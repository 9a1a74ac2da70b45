package repository

import (
	"context"
	"errors"

	"github.com/OFThub/ToDoList/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CollaboratorRepository struct {
	db *gorm.DB
}

type CollaboratorRepositoryInterface interface {
	Add(ctx context.Context, projectID, userID uuid.UUID, role string) error
	UpdateRole(ctx context.Context, projectID, userID uuid.UUID, role string) error
	RemoveWithAssignments(ctx context.Context, projectID, userID uuid.UUID) error
	GetByProjectID(ctx context.Context, projectID uuid.UUID) ([]model.Collaborator, error)
	GetRole(ctx context.Context, projectID, userID uuid.UUID) (string, error)
}

var _ CollaboratorRepositoryInterface = (*CollaboratorRepository)(nil)

func NewCollaboratorRepository(db *gorm.DB) *CollaboratorRepository {
	return &CollaboratorRepository{db: db}
}

// Add grants userID a role on the project. Duplicate membership is rejected
// with ErrDuplicateCollaborator; the existence check and insert run in one
// transaction to avoid races.
func (r *CollaboratorRepository) Add(ctx context.Context, projectID, userID uuid.UUID, role string) error {
	collaborator := model.Collaborator{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Collaborator
		err := tx.Where("project_id = ? AND user_id = ?", projectID, userID).First(&existing).Error

		if err == nil {
			return ErrDuplicateCollaborator
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(&collaborator).Error
	})
}

// UpdateRole changes an existing collaborator's role.
func (r *CollaboratorRepository) UpdateRole(ctx context.Context, projectID, userID uuid.UUID, role string) error {
	result := r.db.WithContext(ctx).Model(&model.Collaborator{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Update("role", role)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCollaboratorNotFound
	}
	return nil
}

// RemoveWithAssignments deletes the membership row and strips the user from
// every assignee list of the project's tasks in a single transaction.
func (r *CollaboratorRepository) RemoveWithAssignments(ctx context.Context, projectID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("project_id = ? AND user_id = ?", projectID, userID).
			Delete(&model.Collaborator{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCollaboratorNotFound
		}

		return tx.Exec(
			"DELETE FROM task_assignees WHERE user_id = ? AND task_id IN (SELECT id FROM tasks WHERE project_id = ?)",
			userID, projectID,
		).Error
	})
}

// GetByProjectID returns the project's collaborator entries with their users
// hydrated for display.
func (r *CollaboratorRepository) GetByProjectID(ctx context.Context, projectID uuid.UUID) ([]model.Collaborator, error) {
	var collaborators []model.Collaborator

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at").
		Find(&collaborators).Error

	return collaborators, err
}

// GetRole returns the user's stored role on the project, or an empty string
// when no collaborator entry exists.
func (r *CollaboratorRepository) GetRole(ctx context.Context, projectID, userID uuid.UUID) (string, error) {
	var collaborator model.Collaborator

	err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&collaborator).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return collaborator.Role, nil
}
