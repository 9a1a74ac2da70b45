// Package docs registers the OpenAPI spec served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a new account",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange credentials for a bearer token",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/projects": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Projects"],
                "summary": "List owned, shared and public projects",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Projects"],
                "summary": "Create a project",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/projects/{projectId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Projects"],
                "summary": "Project detail with collaborators",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Projects"],
                "summary": "Update a project",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Projects"],
                "summary": "Delete a project and all its tasks",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/projects/{projectId}/collaborators": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Collaborators"],
                "summary": "Add a collaborator by email",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}
            }
        },
        "/projects/{projectId}/tasks": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Tasks"],
                "summary": "Create a task",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Validation error"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "ToDoList API",
	Description:      "Multi-tenant project and task tracking API with role-based collaboration.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
