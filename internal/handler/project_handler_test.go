package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OFThub/ToDoList/internal/access"
	"github.com/OFThub/ToDoList/internal/handler"
	"github.com/OFThub/ToDoList/internal/middleware"
	"github.com/OFThub/ToDoList/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGroupByStatus_FollowsVocabularyOrder(t *testing.T) {
	statuses := model.StatusList{
		{Label: "Todo", Color: "#808080"},
		{Label: "Doing", Color: "#007bff"},
		{Label: "Done", Color: "#28a745"},
	}
	projectID := uuid.New()
	tasks := []model.Task{
		{ID: uuid.New(), ProjectID: projectID, Title: "a", Status: "Done"},
		{ID: uuid.New(), ProjectID: projectID, Title: "b", Status: "Todo"},
		{ID: uuid.New(), ProjectID: projectID, Title: "c", Status: "Todo"},
	}

	columns := handler.GroupByStatus(statuses, tasks)

	assert.Len(t, columns, 3)
	assert.Equal(t, "Todo", columns[0].Label)
	assert.Equal(t, "Doing", columns[1].Label)
	assert.Equal(t, "Done", columns[2].Label)
	assert.Len(t, columns[0].Tasks, 2)
	assert.Len(t, columns[1].Tasks, 0)
	assert.Len(t, columns[2].Tasks, 1)
}

func TestGroupByStatus_OmitsUnknownStatuses(t *testing.T) {
	statuses := model.StatusList{{Label: "Todo", Color: "#808080"}}
	tasks := []model.Task{
		{ID: uuid.New(), Title: "kept", Status: "Todo"},
		// Persisted under a status the project no longer declares.
		{ID: uuid.New(), Title: "orphan", Status: "Archived"},
	}

	columns := handler.GroupByStatus(statuses, tasks)

	assert.Len(t, columns, 1)
	assert.Len(t, columns[0].Tasks, 1)
	assert.Equal(t, "kept", columns[0].Tasks[0].Task)
}

func TestGroupByStatus_EmptyProjectKeepsColumns(t *testing.T) {
	columns := handler.GroupByStatus(model.DefaultStatuses(), nil)

	assert.Len(t, columns, 3)
	for _, col := range columns {
		assert.NotNil(t, col.Tasks)
		assert.Empty(t, col.Tasks)
	}
}

type projectTestEnv struct {
	router        *gin.Engine
	projectRepo   *MockProjectRepository
	collaborators *MockCollaboratorRepository
	taskRepo      *MockTaskRepository
	userRepo      *MockUserRepository
	events        *recordingPublisher
	userID        uuid.UUID
}

func setupProjectTest() *projectTestEnv {
	gin.SetMode(gin.TestMode)

	env := &projectTestEnv{
		projectRepo:   new(MockProjectRepository),
		collaborators: new(MockCollaboratorRepository),
		taskRepo:      new(MockTaskRepository),
		userRepo:      new(MockUserRepository),
		events:        new(recordingPublisher),
		userID:        uuid.New(),
	}

	resolver := access.NewResolver(env.projectRepo, env.taskRepo, env.collaborators)
	projectHandler := handler.NewProjectHandler(
		env.projectRepo, env.collaborators, env.taskRepo, env.userRepo, resolver, env.events)

	r := gin.Default()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, env.userID)
	})
	r.POST("/projects", projectHandler.Create)
	r.PUT("/projects/:projectId", projectHandler.Update)
	r.DELETE("/projects/:projectId", projectHandler.Delete)
	r.GET("/projects/:projectId/board", projectHandler.Board)

	env.router = r
	return env
}

func TestCreateProject_DefaultsApplied(t *testing.T) {
	env := setupProjectTest()

	var created *model.Project
	env.projectRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Project")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*model.Project)
			created.ID = uuid.New()
		}).
		Return(nil)

	resp := postJSON(env.router, "POST", "/projects", gin.H{"title": "Roadmap"})

	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, model.VisibilityPrivate, created.Visibility)
	assert.Equal(t, "General", created.Category)
	assert.Equal(t, env.userID, created.OwnerID)
	assert.Equal(t, model.DefaultStatuses(), created.CustomStatuses)
}

func TestUpdateProject_RejectsEmptyStatusVocabulary(t *testing.T) {
	env := setupProjectTest()

	project := &model.Project{
		ID:             uuid.New(),
		Title:          "Roadmap",
		Visibility:     model.VisibilityPrivate,
		OwnerID:        env.userID,
		CustomStatuses: model.DefaultStatuses(),
	}
	env.projectRepo.On("GetByID", mock.Anything, project.ID).Return(project, nil)

	resp := postJSON(env.router, "PUT", "/projects/"+project.ID.String(),
		gin.H{"custom_statuses": []model.CustomStatus{}})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "at least one custom status")
	env.projectRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeleteProject_AdminCollaboratorAllowed(t *testing.T) {
	env := setupProjectTest()

	project := &model.Project{
		ID:             uuid.New(),
		Title:          "Roadmap",
		Visibility:     model.VisibilityPrivate,
		OwnerID:        uuid.New(),
		CustomStatuses: model.DefaultStatuses(),
	}
	env.projectRepo.On("GetByID", mock.Anything, project.ID).Return(project, nil)
	env.collaborators.On("GetRole", mock.Anything, project.ID, env.userID).Return(model.RoleAdmin, nil)
	env.projectRepo.On("DeleteCascade", mock.Anything, project.ID).Return(nil)

	req, _ := http.NewRequest("DELETE", "/projects/"+project.ID.String(), nil)
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"project_deleted"}, env.events.published())
	env.projectRepo.AssertExpectations(t)
}

func TestBoard_PublicProjectReadableByStranger(t *testing.T) {
	env := setupProjectTest()

	project := &model.Project{
		ID:             uuid.New(),
		Title:          "Roadmap",
		Visibility:     model.VisibilityPublic,
		OwnerID:        uuid.New(),
		CustomStatuses: model.DefaultStatuses(),
	}
	env.projectRepo.On("GetByID", mock.Anything, project.ID).Return(project, nil)
	env.collaborators.On("GetRole", mock.Anything, project.ID, env.userID).Return("", nil)
	env.taskRepo.On("GetByProjectID", mock.Anything, project.ID, "").Return([]model.Task{}, nil)

	req, _ := http.NewRequest("GET", "/projects/"+project.ID.String()+"/board", nil)
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "columns")
}

func TestBoard_PrivateProjectHiddenFromStranger(t *testing.T) {
	env := setupProjectTest()

	project := &model.Project{
		ID:             uuid.New(),
		Title:          "Roadmap",
		Visibility:     model.VisibilityPrivate,
		OwnerID:        uuid.New(),
		CustomStatuses: model.DefaultStatuses(),
	}
	env.projectRepo.On("GetByID", mock.Anything, project.ID).Return(project, nil)
	env.collaborators.On("GetRole", mock.Anything, project.ID, env.userID).Return("", nil)

	req, _ := http.NewRequest("GET", "/projects/"+project.ID.String()+"/board", nil)
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusForbidden, resp.Code)
	env.taskRepo.AssertNotCalled(t, "GetByProjectID", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateProject_RejectsDuplicateStatusLabels(t *testing.T) {
	env := setupProjectTest()

	resp := postJSON(env.router, "POST", "/projects", gin.H{
		"title": "Roadmap",
		"custom_statuses": []model.CustomStatus{
			{Label: "Todo", Color: "#808080"},
			{Label: "Todo", Color: "#28a745"},
		},
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "unique")
	env.projectRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateProject_RejectsDuplicateStatusLabels(t *testing.T) {
	env := setupProjectTest()

	project := &model.Project{
		ID:             uuid.New(),
		Title:          "Roadmap",
		Visibility:     model.VisibilityPrivate,
		OwnerID:        env.userID,
		CustomStatuses: model.DefaultStatuses(),
	}
	env.projectRepo.On("GetByID", mock.Anything, project.ID).Return(project, nil)

	// A duplicated label would make the board's column index ambiguous.
	resp := postJSON(env.router, "PUT", "/projects/"+project.ID.String(), gin.H{
		"custom_statuses": []model.CustomStatus{
			{Label: "Done", Color: "#28a745"},
			{Label: "Done", Color: "#808080"},
		},
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "unique")
	env.projectRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
