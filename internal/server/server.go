package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFThub/ToDoList/internal/access"
	"github.com/OFThub/ToDoList/internal/config"
	"github.com/OFThub/ToDoList/internal/handler"
	"github.com/OFThub/ToDoList/internal/middleware"
	"github.com/OFThub/ToDoList/internal/realtime"
	"github.com/OFThub/ToDoList/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Hub    *realtime.Hub
	Config *config.Config
}

func Init(cfg *config.Config) (*Server, error) {
	// Setup GORM
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Println("✅ Connected to database")

	if err := runMigrations(cfg); err != nil {
		return nil, fmt.Errorf("❌ failed to apply migrations: %w", err)
	}
	log.Println("✅ Migrations applied")

	// Setup Gin
	r := gin.Default()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	collaboratorRepo := repository.NewCollaboratorRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	// Access resolver gates every project- and task-scoped route
	resolver := access.NewResolver(projectRepo, taskRepo, collaboratorRepo)

	// Realtime hub fans mutations out to per-project websocket rooms
	hub := realtime.NewHub()
	go hub.Run()

	// Initialize handlers
	userHandler := handler.NewUserHandler(userRepo)
	projectHandler := handler.NewProjectHandler(projectRepo, collaboratorRepo, taskRepo, userRepo, resolver, hub)
	collaboratorHandler := handler.NewCollaboratorHandler(collaboratorRepo, userRepo, resolver, hub)
	taskHandler := handler.NewTaskHandler(taskRepo, resolver, hub)
	realtimeHandler := realtime.NewHandler(hub, resolver)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "timestamp": time.Now()})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")

	// Public routes
	api.POST("/auth/register", userHandler.Register)
	api.POST("/auth/login", userHandler.Login)

	// Protected routes - require authentication
	authorized := api.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		// Account routes
		authorized.GET("/users/me", userHandler.Me)
		authorized.PUT("/users/me", userHandler.UpdateMe)

		// Project routes
		authorized.POST("/projects", projectHandler.Create)
		authorized.GET("/projects", projectHandler.GetAll)
		authorized.GET("/projects/:projectId", projectHandler.GetByID)
		authorized.PUT("/projects/:projectId", projectHandler.Update)
		authorized.DELETE("/projects/:projectId", projectHandler.Delete)
		authorized.GET("/projects/:projectId/board", projectHandler.Board)
		authorized.GET("/projects/:projectId/timeline", projectHandler.Timeline)

		// Collaborator routes
		authorized.POST("/projects/:projectId/collaborators", collaboratorHandler.Add)
		authorized.GET("/projects/:projectId/collaborators", collaboratorHandler.GetAll)
		authorized.PUT("/projects/:projectId/collaborators/:userId", collaboratorHandler.UpdateRole)
		authorized.DELETE("/projects/:projectId/collaborators/:userId", collaboratorHandler.Remove)

		// Task routes
		authorized.POST("/projects/:projectId/tasks", taskHandler.Create)
		authorized.GET("/projects/:projectId/tasks", taskHandler.GetByProjectID)
		authorized.GET("/tasks/:taskId", taskHandler.GetByID)
		authorized.PUT("/tasks/:taskId", taskHandler.Update)
		authorized.DELETE("/tasks/:taskId", taskHandler.Delete)
		authorized.POST("/tasks/:taskId/assignees", taskHandler.AddAssignee)
		authorized.DELETE("/tasks/:taskId/assignees/:userId", taskHandler.RemoveAssignee)
	}

	// Websocket routes - project rooms for live updates
	ws := r.Group("/ws")
	ws.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	ws.GET("/projects/:projectId", realtimeHandler.ServeProject)

	return &Server{
		Engine: r,
		DB:     db,
		Hub:    hub,
		Config: cfg,
	}, nil
}

func runMigrations(cfg *config.Config) error {
	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName,
	)
	m, err := migrate.New(cfg.MigrationsPath, dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	log.Println("✅ Server exited properly")
}
