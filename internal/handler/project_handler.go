package handler

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/OFThub/ToDoList/internal/access"
	"github.com/OFThub/ToDoList/internal/model"
	"github.com/OFThub/ToDoList/internal/realtime"
	"github.com/OFThub/ToDoList/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProjectHandler struct {
	projectRepo      repository.ProjectRepositoryInterface
	collaboratorRepo repository.CollaboratorRepositoryInterface
	taskRepo         repository.TaskRepositoryInterface
	userRepo         repository.UserRepositoryInterface
	resolver         *access.Resolver
	events           realtime.Publisher
}

func NewProjectHandler(
	projectRepo repository.ProjectRepositoryInterface,
	collaboratorRepo repository.CollaboratorRepositoryInterface,
	taskRepo repository.TaskRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	resolver *access.Resolver,
	events realtime.Publisher,
) *ProjectHandler {
	return &ProjectHandler{
		projectRepo:      projectRepo,
		collaboratorRepo: collaboratorRepo,
		taskRepo:         taskRepo,
		userRepo:         userRepo,
		resolver:         resolver,
		events:           events,
	}
}

type CreateProjectRequest struct {
	Title          string               `json:"title" binding:"required"`
	Description    string               `json:"description"`
	Category       string               `json:"category"`
	Color          string               `json:"color"`
	Visibility     string               `json:"visibility" binding:"omitempty,oneof=private team public"`
	CustomStatuses []model.CustomStatus `json:"custom_statuses"`
}

type UpdateProjectRequest struct {
	Title          *string               `json:"title"`
	Description    *string               `json:"description"`
	Category       *string               `json:"category"`
	Color          *string               `json:"color"`
	Visibility     *string               `json:"visibility" binding:"omitempty,oneof=private team public"`
	CustomStatuses *[]model.CustomStatus `json:"custom_statuses"`
}

type ProjectResponse struct {
	ID             string               `json:"id"`
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	Category       string               `json:"category"`
	Color          string               `json:"color"`
	Visibility     string               `json:"visibility"`
	OwnerID        string               `json:"owner_id"`
	CustomStatuses []model.CustomStatus `json:"custom_statuses"`
	CreatedAt      time.Time            `json:"created_at"`

	// Role the requesting user holds on the project, when resolved.
	Role string `json:"role,omitempty"`
}

// validateStatusVocabulary checks a custom-status list: labels must be
// non-empty and unique, since tasks reference statuses by label and the board
// keys its columns on them.
func validateStatusVocabulary(statuses model.StatusList) error {
	seen := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		if st.Label == "" {
			return errors.New("Custom status labels must not be empty")
		}
		if seen[st.Label] {
			return errors.New("Custom status labels must be unique")
		}
		seen[st.Label] = true
	}
	return nil
}

func projectResponse(project *model.Project, role string) ProjectResponse {
	return ProjectResponse{
		ID:             project.ID.String(),
		Title:          project.Title,
		Description:    project.Description,
		Category:       project.Category,
		Color:          project.Color,
		Visibility:     project.Visibility,
		OwnerID:        project.OwnerID.String(),
		CustomStatuses: []model.CustomStatus(project.CustomStatuses),
		CreatedAt:      project.CreatedAt,
		Role:           role,
	}
}

// Create creates a new project owned by the authenticated user.
func (h *ProjectHandler) Create(c *gin.Context) {
	authenticatedUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	statuses := model.StatusList(req.CustomStatuses)
	if len(statuses) == 0 {
		statuses = model.DefaultStatuses()
	}
	if err := validateStatusVocabulary(statuses); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = model.VisibilityPrivate
	}
	category := req.Category
	if category == "" {
		category = "General"
	}
	color := req.Color
	if color == "" {
		color = "#6366f1"
	}

	project := &model.Project{
		Title:          req.Title,
		Description:    req.Description,
		Category:       category,
		Color:          color,
		Visibility:     visibility,
		OwnerID:        authenticatedUserID,
		CustomStatuses: statuses,
	}

	if err := h.projectRepo.Create(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, projectResponse(project, model.RoleOwner))
}

// GetAll lists projects the user owns, collaborates on, or that are public.
func (h *ProjectHandler) GetAll(c *gin.Context) {
	authenticatedUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	projects, err := h.projectRepo.GetVisible(c.Request.Context(), authenticatedUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]ProjectResponse, len(projects))
	for i := range projects {
		response[i] = projectResponse(&projects[i], "")
	}

	c.JSON(http.StatusOK, response)
}

// CollaboratorEntry is one member of a project, owner included.
type CollaboratorEntry struct {
	User    UserSummary `json:"user"`
	Role    string      `json:"role"`
	IsOwner bool        `json:"is_owner"`
}

// GetByID returns a project with its members hydrated. Requires read access.
func (h *ProjectHandler) GetByID(c *gin.Context) {
	authenticatedUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	grant, err := h.resolver.ResolveProject(c.Request.Context(), authenticatedUserID, projectID, access.LevelRead)
	if err != nil {
		respondAccessError(c, err)
		return
	}

	members, err := h.projectMembers(c, grant.Project)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve collaborators"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project":       projectResponse(grant.Project, grant.Role),
		"collaborators": members,
	})
}

func (h *ProjectHandler) projectMembers(c *gin.Context, project *model.Project) ([]CollaboratorEntry, error) {
	entries := []CollaboratorEntry{}

	owner, err := h.userRepo.GetByID(c.Request.Context(), project.OwnerID)
	if err != nil {
		return nil, err
	}
	if owner != nil {
		entries = append(entries, CollaboratorEntry{User: userSummary(owner), Role: model.RoleOwner, IsOwner: true})
	}

	collaborators, err := h.collaboratorRepo.GetByProjectID(c.Request.Context(), project.ID)
	if err != nil {
		return nil, err
	}
	for i := range collaborators {
		entries = append(entries, CollaboratorEntry{
			User: userSummary(&collaborators[i].User),
			Role: collaborators[i].Role,
		})
	}
	return entries, nil
}

// Update modifies project fields. Requires write access; the owner reference
// is immutable.
func (h *ProjectHandler) Update(c *gin.Context) {
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

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project := grant.Project
	if req.Title != nil {
		if *req.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title must not be empty"})
			return
		}
		project.Title = *req.Title
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Category != nil {
		project.Category = *req.Category
	}
	if req.Color != nil {
		project.Color = *req.Color
	}
	if req.Visibility != nil {
		project.Visibility = *req.Visibility
	}
	if req.CustomStatuses != nil {
		if len(*req.CustomStatuses) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Projects must keep at least one custom status"})
			return
		}
		if err := validateStatusVocabulary(model.StatusList(*req.CustomStatuses)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		project.CustomStatuses = model.StatusList(*req.CustomStatuses)
	}

	if err := h.projectRepo.Update(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	h.events.Publish(project.ID, realtime.EventProjectUpdated, projectResponse(project, ""))

	c.JSON(http.StatusOK, projectResponse(project, grant.Role))
}

// Delete removes a project and all its tasks. Requires delete access.
func (h *ProjectHandler) Delete(c *gin.Context) {
	authenticatedUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	if _, err := h.resolver.ResolveProject(c.Request.Context(), authenticatedUserID, projectID, access.LevelDelete); err != nil {
		respondAccessError(c, err)
		return
	}

	if err := h.projectRepo.DeleteCascade(c.Request.Context(), projectID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	h.events.Publish(projectID, realtime.EventProjectDeleted, nil)

	c.JSON(http.StatusOK, gin.H{"message": "Project and its tasks deleted"})
}

// BoardColumn is one Kanban column keyed by a custom status.
type BoardColumn struct {
	Label string         `json:"label"`
	Color string         `json:"color"`
	Tasks []TaskResponse `json:"tasks"`
}

// Board groups the project's tasks into columns following the custom-status
// vocabulary. Tasks whose persisted status is no longer in the vocabulary are
// omitted from every column.
func (h *ProjectHandler) Board(c *gin.Context) {
	authenticatedUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	grant, err := h.resolver.ResolveProject(c.Request.Context(), authenticatedUserID, projectID, access.LevelRead)
	if err != nil {
		respondAccessError(c, err)
		return
	}

	tasks, err := h.taskRepo.GetByProjectID(c.Request.Context(), projectID, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"columns": GroupByStatus(grant.Project.CustomStatuses, tasks)})
}

// GroupByStatus derives the Kanban column layout from the project vocabulary.
func GroupByStatus(statuses model.StatusList, tasks []model.Task) []BoardColumn {
	columns := make([]BoardColumn, len(statuses))
	for i, st := range statuses {
		columns[i] = BoardColumn{Label: st.Label, Color: st.Color, Tasks: []TaskResponse{}}
	}

	index := make(map[string]int, len(statuses))
	for i, st := range statuses {
		index[st.Label] = i
	}

	for i := range tasks {
		col, ok := index[tasks[i].Status]
		if !ok {
			continue
		}
		columns[col].Tasks = append(columns[col].Tasks, taskResponse(&tasks[i]))
	}
	return columns
}

// Timeline returns the project's dated tasks ordered for a Gantt view.
func (h *ProjectHandler) Timeline(c *gin.Context) {
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

	tasks, err := h.taskRepo.GetByProjectID(c.Request.Context(), projectID, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	dated := make([]model.Task, 0, len(tasks))
	for i := range tasks {
		if tasks[i].StartDate != nil || tasks[i].DueDate != nil {
			dated = append(dated, tasks[i])
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return timelineKey(&dated[i]).Before(timelineKey(&dated[j]))
	})

	response := make([]TaskResponse, len(dated))
	for i := range dated {
		response[i] = taskResponse(&dated[i])
	}

	c.JSON(http.StatusOK, response)
}

func timelineKey(t *model.Task) time.Time {
	if t.StartDate != nil {
		return *t.StartDate
	}
	return *t.DueDate
}
