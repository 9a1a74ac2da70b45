package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/OFThub/ToDoList/internal/access"
	"github.com/OFThub/ToDoList/internal/model"
	"github.com/OFThub/ToDoList/internal/realtime"
	"github.com/OFThub/ToDoList/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskHandler struct {
	taskRepo repository.TaskRepositoryInterface
	resolver *access.Resolver
	events   realtime.Publisher
}

func NewTaskHandler(
	taskRepo repository.TaskRepositoryInterface,
	resolver *access.Resolver,
	events realtime.Publisher,
) *TaskHandler {
	return &TaskHandler{
		taskRepo: taskRepo,
		resolver: resolver,
		events:   events,
	}
}

// CreateTaskRequest carries a new task. The task's status must belong to the
// owning project's custom-status vocabulary.
type CreateTaskRequest struct {
	Task        string     `json:"task" binding:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=Low Medium High Urgent"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
	ParentTask  string     `json:"parent_task" binding:"omitempty,uuid"`
	Tags        []string   `json:"tags"`
	Progress    *int       `json:"progress" binding:"omitempty,min=0,max=100"`
	Assignees   []string   `json:"assignees" binding:"omitempty,dive,uuid"`
}

type UpdateTaskRequest struct {
	Task        *string    `json:"task"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=Low Medium High Urgent"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
	ParentTask  *string    `json:"parent_task" binding:"omitempty,uuid"`
	Tags        *[]string  `json:"tags"`
	Progress    *int       `json:"progress" binding:"omitempty,min=0,max=100"`
}

type TaskAssignRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// TaskResponse represents a task. Assignees are always plain identifiers;
// hydrated users are attached only where the read path preloaded them.
type TaskResponse struct {
	ID            string        `json:"id"`
	ProjectID     string        `json:"project_id"`
	Task          string        `json:"task"`
	Description   string        `json:"description"`
	Status        string        `json:"status"`
	Priority      string        `json:"priority"`
	StartDate     *time.Time    `json:"start_date,omitempty"`
	DueDate       *time.Time    `json:"due_date,omitempty"`
	ParentTask    *string       `json:"parent_task,omitempty"`
	Tags          []string      `json:"tags"`
	Progress      int           `json:"progress"`
	CreatedBy     string        `json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
	Assignees     []string      `json:"assignees"`
	AssigneeUsers []UserSummary `json:"assignee_users,omitempty"`
}

func taskResponse(task *model.Task) TaskResponse {
	resp := TaskResponse{
		ID:          task.ID.String(),
		ProjectID:   task.ProjectID.String(),
		Task:        task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		StartDate:   task.StartDate,
		DueDate:     task.DueDate,
		Tags:        []string(task.Tags),
		Progress:    task.Progress,
		CreatedBy:   task.CreatedBy.String(),
		CreatedAt:   task.CreatedAt,
		Assignees:   []string{},
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if task.ParentTaskID != nil {
		parent := task.ParentTaskID.String()
		resp.ParentTask = &parent
	}
	for i := range task.Assignees {
		resp.Assignees = append(resp.Assignees, task.Assignees[i].ID.String())
		resp.AssigneeUsers = append(resp.AssigneeUsers, userSummary(&task.Assignees[i]))
	}
	return resp
}

// Create adds a task to a project. Requires write access.
func (h *TaskHandler) Create(c *gin.Context) {
	authenticatedUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	grant, err := h.resolver.ResolveProject(c.Request.Context(), authenticatedUserID, projectID, access.LevelWrite)
	if err != nil {
		respondAccessError(c, err)
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Resolve the status against the project vocabulary. Empty defaults to
	// the first custom status; anything else must match exactly.
	status := req.Status
	if status == "" {
		status = grant.Project.CustomStatuses[0].Label
	} else if !grant.Project.CustomStatuses.Contains(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is not part of this project's custom statuses"})
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	var parentTaskID *uuid.UUID
	if req.ParentTask != "" {
		parentID, err := uuid.Parse(req.ParentTask)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parent task ID format"})
			return
		}
		parent, err := h.taskRepo.GetByID(c.Request.Context(), parentID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve parent task"})
			return
		}
		if parent == nil || parent.ProjectID != projectID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parent task does not exist in this project"})
			return
		}
		parentTaskID = &parentID
	}

	assigneeIDs, ok := parseUserIDs(c, req.Assignees)
	if !ok {
		return
	}

	progress := 0
	if req.Progress != nil {
		progress = *req.Progress
	}

	task := &model.Task{
		ProjectID:    projectID,
		Title:        req.Task,
		Description:  req.Description,
		Status:       status,
		Priority:     priority,
		StartDate:    req.StartDate,
		DueDate:      req.DueDate,
		ParentTaskID: parentTaskID,
		Tags:         model.StringList(req.Tags),
		Progress:     progress,
		CreatedBy:    authenticatedUserID,
	}

	if err := h.taskRepo.Create(c.Request.Context(), task, assigneeIDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	response := taskResponse(task)
	for _, id := range assigneeIDs {
		response.Assignees = append(response.Assignees, id.String())
	}

	h.events.Publish(projectID, realtime.EventTaskCreated, response)

	c.JSON(http.StatusCreated, response)
}

// GetByProjectID lists a project's tasks, optionally filtered by ?status=.
func (h *TaskHandler) GetByProjectID(c *gin.Context) {
	authenticatedUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	if _, err := h.resolver.ResolveProject(c.Request.Context(), authenticatedUserID, projectID, access.LevelRead); err != nil {
		respondAccessError(c, err)
		return
	}

	tasks, err := h.taskRepo.GetByProjectID(c.Request.Context(), projectID, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, len(tasks))
	for i := range tasks {
		response[i] = taskResponse(&tasks[i])
	}

	c.JSON(http.StatusOK, response)
}

// GetByID returns one task with hydrated assignees. The owning project is
// derived from the task; requires read access on it.
func (h *TaskHandler) GetByID(c *gin.Context) {
	authenticatedUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	if _, _, err := h.resolver.ResolveTask(c.Request.Context(), authenticatedUserID, taskID, access.LevelRead); err != nil {
		respondAccessError(c, err)
		return
	}

	task, err := h.taskRepo.GetDetail(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	c.JSON(http.StatusOK, taskResponse(task))
}

// Update modifies a task. Requires write access; status changes are checked
// against the project vocabulary exactly like on create, and the project
// reference is immutable.
func (h *TaskHandler) Update(c *gin.Context) {
	authenticatedUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	grant, task, err := h.resolver.ResolveTask(c.Request.Context(), authenticatedUserID, taskID, access.LevelWrite)
	if err != nil {
		respondAccessError(c, err)
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Task != nil {
		if *req.Task == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Task title must not be empty"})
			return
		}
		task.Title = *req.Task
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		if !grant.Project.CustomStatuses.Contains(*req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Status is not part of this project's custom statuses"})
			return
		}
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.StartDate != nil {
		task.StartDate = req.StartDate
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.ParentTask != nil {
		if *req.ParentTask == "" {
			task.ParentTaskID = nil
		} else {
			parentID, err := uuid.Parse(*req.ParentTask)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parent task ID format"})
				return
			}
			if parentID == task.ID {
				c.JSON(http.StatusBadRequest, gin.H{"error": "A task cannot be its own parent"})
				return
			}
			parent, err := h.taskRepo.GetByID(c.Request.Context(), parentID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve parent task"})
				return
			}
			if parent == nil || parent.ProjectID != task.ProjectID {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Parent task does not exist in this project"})
				return
			}
			// Walk the proposed parent's ancestor chain: attaching a task
			// under its own descendant would create a cycle in the subtask
			// tree and break the recursive delete.
			ancestor := parent
			for ancestor.ParentTaskID != nil {
				if *ancestor.ParentTaskID == task.ID {
					c.JSON(http.StatusBadRequest, gin.H{"error": "A task cannot be moved under its own subtask"})
					return
				}
				ancestor, err = h.taskRepo.GetByID(c.Request.Context(), *ancestor.ParentTaskID)
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve parent task"})
					return
				}
				if ancestor == nil {
					break
				}
			}
			task.ParentTaskID = &parentID
		}
	}
	if req.Tags != nil {
		task.Tags = model.StringList(*req.Tags)
	}
	if req.Progress != nil {
		task.Progress = *req.Progress
	}

	if err := h.taskRepo.Update(c.Request.Context(), task); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	response := taskResponse(task)
	h.events.Publish(task.ProjectID, realtime.EventTaskUpdated, response)

	c.JSON(http.StatusOK, response)
}

// Delete removes a task and its whole subtask tree. Requires delete access.
func (h *TaskHandler) Delete(c *gin.Context) {
	authenticatedUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	_, task, err := h.resolver.ResolveTask(c.Request.Context(), authenticatedUserID, taskID, access.LevelDelete)
	if err != nil {
		respondAccessError(c, err)
		return
	}

	if err := h.taskRepo.DeleteTree(c.Request.Context(), taskID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	h.events.Publish(task.ProjectID, realtime.EventTaskDeleted, gin.H{"task_id": taskID.String()})

	c.JSON(http.StatusOK, gin.H{"message": "Task and its subtasks deleted"})
}

// AddAssignee adds a user to the task's assignee set. Requires write access.
func (h *TaskHandler) AddAssignee(c *gin.Context) {
	authenticatedUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	_, task, err := h.resolver.ResolveTask(c.Request.Context(), authenticatedUserID, taskID, access.LevelWrite)
	if err != nil {
		respondAccessError(c, err)
		return
	}

	var req TaskAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	targetUserID, _ := uuid.Parse(req.UserID)

	if err := h.taskRepo.AddAssignee(c.Request.Context(), taskID, targetUserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign user"})
		return
	}

	h.events.Publish(task.ProjectID, realtime.EventTaskUpdated, gin.H{
		"task_id":  taskID.String(),
		"assigned": targetUserID.String(),
	})

	c.JSON(http.StatusOK, gin.H{"message": "User assigned to task"})
}

// RemoveAssignee removes a user from the task's assignee set. Requires write
// access.
func (h *TaskHandler) RemoveAssignee(c *gin.Context) {
	authenticatedUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	targetUserID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	_, task, err := h.resolver.ResolveTask(c.Request.Context(), authenticatedUserID, taskID, access.LevelWrite)
	if err != nil {
		respondAccessError(c, err)
		return
	}

	if err := h.taskRepo.RemoveAssignee(c.Request.Context(), taskID, targetUserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unassign user"})
		return
	}

	h.events.Publish(task.ProjectID, realtime.EventTaskUpdated, gin.H{
		"task_id":    taskID.String(),
		"unassigned": targetUserID.String(),
	})

	c.JSON(http.StatusOK, gin.H{"message": "User unassigned from task"})
}

// parseUserIDs normalizes a list of id strings to uuids, writing a 400 on the
// first malformed entry.
func parseUserIDs(c *gin.Context, raw []string) ([]uuid.UUID, bool) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignee ID format"})
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}
