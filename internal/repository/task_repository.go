package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OFThub/ToDoList/internal/model"
)

type TaskRepository struct {
	db *gorm.DB
}

type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *model.Task, assigneeIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*model.Task, error)
	GetByProjectID(ctx context.Context, projectID uuid.UUID, status string) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	DeleteTree(ctx context.Context, id uuid.UUID) error
	AddAssignee(ctx context.Context, taskID, userID uuid.UUID) error
	RemoveAssignee(ctx context.Context, taskID, userID uuid.UUID) error
	GetAssigneeIDs(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error)
}

var _ TaskRepositoryInterface = (*TaskRepository)(nil)

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task and its assignee rows in one transaction.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task, assigneeIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		for _, userID := range assigneeIDs {
			if err := tx.Exec(
				"INSERT INTO task_assignees (task_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
				task.ID, userID,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves a task by its ID without hydrating references.
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// GetDetail retrieves a task with its assignees hydrated for display.
func (r *TaskRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Preload("Assignees").First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// GetByProjectID retrieves the project's tasks, optionally filtered by status.
func (r *TaskRepository) GetByProjectID(ctx context.Context, projectID uuid.UUID, status string) ([]model.Task, error) {
	query := r.db.WithContext(ctx).Preload("Assignees").Where("project_id = ?", projectID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var tasks []model.Task
	result := query.Order("created_at DESC").Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// Update updates an existing task.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Omit("Assignees").Save(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// DeleteTree removes a task and its entire subtask tree, assignee rows
// included, in one transaction. The cascade is fully recursive.
func (r *TaskRepository) DeleteTree(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.Task
		if err := tx.First(&task, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}

		if err := tx.Exec(`
			WITH RECURSIVE subtree AS (
				SELECT id FROM tasks WHERE id = ?
				UNION ALL
				SELECT t.id FROM tasks t JOIN subtree s ON t.parent_task_id = s.id
			)
			DELETE FROM task_assignees WHERE task_id IN (SELECT id FROM subtree)`,
			id,
		).Error; err != nil {
			return err
		}

		return tx.Exec(`
			WITH RECURSIVE subtree AS (
				SELECT id FROM tasks WHERE id = ?
				UNION ALL
				SELECT t.id FROM tasks t JOIN subtree s ON t.parent_task_id = s.id
			)
			DELETE FROM tasks WHERE id IN (SELECT id FROM subtree)`,
			id,
		).Error
	})
}

// AddAssignee adds a user to the task's assignee set.
func (r *TaskRepository) AddAssignee(ctx context.Context, taskID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		"INSERT INTO task_assignees (task_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		taskID, userID,
	).Error
}

// RemoveAssignee removes a user from the task's assignee set.
func (r *TaskRepository) RemoveAssignee(ctx context.Context, taskID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		"DELETE FROM task_assignees WHERE task_id = ? AND user_id = ?",
		taskID, userID,
	).Error
}

// GetAssigneeIDs returns the task's assignees as plain identifiers.
func (r *TaskRepository) GetAssigneeIDs(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("task_assignees").
		Where("task_id = ?", taskID).
		Pluck("user_id", &ids).Error
	return ids, err
}
