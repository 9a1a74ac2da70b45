package handler

import (
	"errors"
	"net/http"

	"github.com/OFThub/ToDoList/internal/access"
	"github.com/OFThub/ToDoList/internal/model"
	"github.com/OFThub/ToDoList/internal/realtime"
	"github.com/OFThub/ToDoList/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CollaboratorHandler struct {
	collaboratorRepo repository.CollaboratorRepositoryInterface
	userRepo         repository.UserRepositoryInterface
	resolver         *access.Resolver
	events           realtime.Publisher
}

func NewCollaboratorHandler(
	collaboratorRepo repository.CollaboratorRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	resolver *access.Resolver,
	events realtime.Publisher,
) *CollaboratorHandler {
	return &CollaboratorHandler{
		collaboratorRepo: collaboratorRepo,
		userRepo:         userRepo,
		resolver:         resolver,
		events:           events,
	}
}

// AddCollaboratorRequest invites a user to a project by email.
type AddCollaboratorRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"omitempty,oneof=admin editor viewer"`
}

type UpdateCollaboratorRequest struct {
	Role string `json:"role" binding:"required,oneof=admin editor viewer"`
}

// Add grants a user a role on the project. Requires manage_members access.
func (h *CollaboratorHandler) Add(c *gin.Context) {
	authenticatedUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	grant, err := h.resolver.ResolveProject(c.Request.Context(), authenticatedUserID, projectID, access.LevelManageMembers)
	if err != nil {
		respondAccessError(c, err)
		return
	}

	var req AddCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	role := req.Role
	if role == "" {
		role = model.RoleViewer
	}

	targetUser, err := h.userRepo.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find user"})
		return
	}
	if targetUser == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No user registered with this email"})
		return
	}

	// The owner already holds every permission; adding them again would
	// create a shadow membership.
	if targetUser.ID == grant.Project.OwnerID {
		c.JSON(http.StatusConflict, gin.H{"error": "User is already a collaborator on this project"})
		return
	}

	if err := h.collaboratorRepo.Add(c.Request.Context(), projectID, targetUser.ID, role); err != nil {
		if errors.Is(err, repository.ErrDuplicateCollaborator) {
			c.JSON(http.StatusConflict, gin.H{"error": "User is already a collaborator on this project"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add collaborator"})
		return
	}

	h.events.Publish(projectID, realtime.EventCollaboratorAdded, gin.H{
		"user_id": targetUser.ID.String(),
		"role":    role,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Collaborator added",
		"user":    userSummary(targetUser),
		"role":    role,
	})
}

// GetAll lists the project's members, owner first. Requires read access.
func (h *CollaboratorHandler) GetAll(c *gin.Context) {
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

	entries := []CollaboratorEntry{}

	owner, err := h.userRepo.GetByID(c.Request.Context(), grant.Project.OwnerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve collaborators"})
		return
	}
	if owner != nil {
		entries = append(entries, CollaboratorEntry{User: userSummary(owner), Role: model.RoleOwner, IsOwner: true})
	}

	collaborators, err := h.collaboratorRepo.GetByProjectID(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve collaborators"})
		return
	}
	for i := range collaborators {
		entries = append(entries, CollaboratorEntry{
			User: userSummary(&collaborators[i].User),
			Role: collaborators[i].Role,
		})
	}

	c.JSON(http.StatusOK, entries)
}

// UpdateRole changes a collaborator's role. Requires manage_members access.
func (h *CollaboratorHandler) UpdateRole(c *gin.Context) {
	authenticatedUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	targetUserID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	if _, err := h.resolver.ResolveProject(c.Request.Context(), authenticatedUserID, projectID, access.LevelManageMembers); err != nil {
		respondAccessError(c, err)
		return
	}

	var req UpdateCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.collaboratorRepo.UpdateRole(c.Request.Context(), projectID, targetUserID, req.Role); err != nil {
		if errors.Is(err, repository.ErrCollaboratorNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Collaborator not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update collaborator"})
		return
	}

	h.events.Publish(projectID, realtime.EventCollaboratorChange, gin.H{
		"user_id": targetUserID.String(),
		"role":    req.Role,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Collaborator role updated"})
}

// Remove takes a user off the project and strips them from every task
// assignee list. Requires manage_members access.
func (h *CollaboratorHandler) Remove(c *gin.Context) {
	authenticatedUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	targetUserID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	if _, err := h.resolver.ResolveProject(c.Request.Context(), authenticatedUserID, projectID, access.LevelManageMembers); err != nil {
		respondAccessError(c, err)
		return
	}

	if err := h.collaboratorRepo.RemoveWithAssignments(c.Request.Context(), projectID, targetUserID); err != nil {
		if errors.Is(err, repository.ErrCollaboratorNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Collaborator not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove collaborator"})
		return
	}

	h.events.Publish(projectID, realtime.EventCollaboratorGone, gin.H{
		"user_id": targetUserID.String(),
	})

	c.JSON(http.StatusOK, gin.H{"message": "Collaborator removed from project and all task assignments"})
}
