package main

import (
	"log"

	_ "github.com/OFThub/ToDoList/docs"
	"github.com/OFThub/ToDoList/internal/config"
	"github.com/OFThub/ToDoList/internal/server"
)

// @title           ToDoList API
// @version         1.0
// @description     Multi-tenant project and task tracking API with role-based collaboration.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()

	s, err := server.Init(cfg)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
