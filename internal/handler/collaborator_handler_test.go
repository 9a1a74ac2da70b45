package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OFThub/ToDoList/internal/access"
	"github.com/OFThub/ToDoList/internal/handler"
	"github.com/OFThub/ToDoList/internal/middleware"
	"github.com/OFThub/ToDoList/internal/model"
	"github.com/OFThub/ToDoList/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type collaboratorTestEnv struct {
	router        *gin.Engine
	projectRepo   *MockProjectRepository
	collaborators *MockCollaboratorRepository
	taskRepo      *MockTaskRepository
	userRepo      *MockUserRepository
	events        *recordingPublisher
	userID        uuid.UUID
}

func setupCollaboratorTest() *collaboratorTestEnv {
	gin.SetMode(gin.TestMode)

	env := &collaboratorTestEnv{
		projectRepo:   new(MockProjectRepository),
		collaborators: new(MockCollaboratorRepository),
		taskRepo:      new(MockTaskRepository),
		userRepo:      new(MockUserRepository),
		events:        new(recordingPublisher),
		userID:        uuid.New(),
	}

	resolver := access.NewResolver(env.projectRepo, env.taskRepo, env.collaborators)
	collaboratorHandler := handler.NewCollaboratorHandler(env.collaborators, env.userRepo, resolver, env.events)

	r := gin.Default()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, env.userID)
	})
	r.POST("/projects/:projectId/collaborators", collaboratorHandler.Add)
	r.PUT("/projects/:projectId/collaborators/:userId", collaboratorHandler.UpdateRole)
	r.DELETE("/projects/:projectId/collaborators/:userId", collaboratorHandler.Remove)

	env.router = r
	return env
}

func (env *collaboratorTestEnv) ownedProject() *model.Project {
	project := &model.Project{
		ID:             uuid.New(),
		Title:          "Roadmap",
		Visibility:     model.VisibilityPrivate,
		OwnerID:        env.userID,
		CustomStatuses: model.DefaultStatuses(),
	}
	env.projectRepo.On("GetByID", mock.Anything, project.ID).Return(project, nil)
	return project
}

func TestAddCollaborator_DefaultsToViewer(t *testing.T) {
	env := setupCollaboratorTest()
	project := env.ownedProject()

	invitee := &model.User{ID: uuid.New(), Username: "invitee", Email: "invitee@example.com"}
	env.userRepo.On("FindByEmail", mock.Anything, "invitee@example.com").Return(invitee, nil)
	env.collaborators.On("Add", mock.Anything, project.ID, invitee.ID, model.RoleViewer).Return(nil)

	resp := postJSON(env.router, "POST", "/projects/"+project.ID.String()+"/collaborators",
		gin.H{"email": "invitee@example.com"})

	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, []string{"collaborator_added"}, env.events.published())
	env.collaborators.AssertExpectations(t)
}

func TestAddCollaborator_UnknownEmail(t *testing.T) {
	env := setupCollaboratorTest()
	project := env.ownedProject()

	env.userRepo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)

	resp := postJSON(env.router, "POST", "/projects/"+project.ID.String()+"/collaborators",
		gin.H{"email": "ghost@example.com", "role": "editor"})

	assert.Equal(t, http.StatusNotFound, resp.Code)
	env.collaborators.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddCollaborator_OwnerCannotBeReAdded(t *testing.T) {
	env := setupCollaboratorTest()
	project := env.ownedProject()

	owner := &model.User{ID: env.userID, Username: "owner", Email: "owner@example.com"}
	env.userRepo.On("FindByEmail", mock.Anything, "owner@example.com").Return(owner, nil)

	resp := postJSON(env.router, "POST", "/projects/"+project.ID.String()+"/collaborators",
		gin.H{"email": "owner@example.com", "role": "editor"})

	assert.Equal(t, http.StatusConflict, resp.Code)
	env.collaborators.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddCollaborator_DuplicateMembership(t *testing.T) {
	env := setupCollaboratorTest()
	project := env.ownedProject()

	invitee := &model.User{ID: uuid.New(), Username: "invitee", Email: "invitee@example.com"}
	env.userRepo.On("FindByEmail", mock.Anything, "invitee@example.com").Return(invitee, nil)
	env.collaborators.On("Add", mock.Anything, project.ID, invitee.ID, "editor").
		Return(repository.ErrDuplicateCollaborator)

	resp := postJSON(env.router, "POST", "/projects/"+project.ID.String()+"/collaborators",
		gin.H{"email": "invitee@example.com", "role": "editor"})

	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Empty(t, env.events.published())
}

func TestAddCollaborator_EditorLacksManageMembers(t *testing.T) {
	env := setupCollaboratorTest()

	project := &model.Project{
		ID:             uuid.New(),
		Title:          "Roadmap",
		Visibility:     model.VisibilityPrivate,
		OwnerID:        uuid.New(),
		CustomStatuses: model.DefaultStatuses(),
	}
	env.projectRepo.On("GetByID", mock.Anything, project.ID).Return(project, nil)
	env.collaborators.On("GetRole", mock.Anything, project.ID, env.userID).Return(model.RoleEditor, nil)

	resp := postJSON(env.router, "POST", "/projects/"+project.ID.String()+"/collaborators",
		gin.H{"email": "invitee@example.com"})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Contains(t, resp.Body.String(), model.RoleEditor)
	env.userRepo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestUpdateCollaboratorRole_NotFound(t *testing.T) {
	env := setupCollaboratorTest()
	project := env.ownedProject()
	targetID := uuid.New()

	env.collaborators.On("UpdateRole", mock.Anything, project.ID, targetID, "admin").
		Return(repository.ErrCollaboratorNotFound)

	resp := postJSON(env.router, "PUT",
		"/projects/"+project.ID.String()+"/collaborators/"+targetID.String(),
		gin.H{"role": "admin"})

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Empty(t, env.events.published())
}

func TestRemoveCollaborator_PublishesRemoval(t *testing.T) {
	env := setupCollaboratorTest()
	project := env.ownedProject()
	targetID := uuid.New()

	env.collaborators.On("RemoveWithAssignments", mock.Anything, project.ID, targetID).Return(nil)

	req, _ := http.NewRequest("DELETE",
		"/projects/"+project.ID.String()+"/collaborators/"+targetID.String(), nil)
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"collaborator_removed"}, env.events.published())
	env.collaborators.AssertExpectations(t)
}
