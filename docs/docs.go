// Package docs holds the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/register": {
            "post": {"tags": ["Users"], "summary": "Create an account and get a token", "responses": {"201": {"description": "Created"}, "409": {"description": "Email already registered"}}}
        },
        "/login": {
            "post": {"tags": ["Users"], "summary": "Exchange credentials for a token", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}}
        },
        "/health": {
            "get": {"tags": ["System"], "summary": "Service and database status", "responses": {"200": {"description": "OK"}, "503": {"description": "Database unreachable"}}}
        },
        "/users/search": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Users"], "summary": "Find a user by email", "parameters": [{"type": "string", "name": "email", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        },
        "/boards": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Boards"], "summary": "Boards the caller owns or belongs to", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["Boards"], "summary": "Create a board", "responses": {"201": {"description": "Created"}}}
        },
        "/boards/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Boards"], "summary": "Get a board", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Access denied"}, "404": {"description": "Not found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["Boards"], "summary": "Update board details (admin)", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Boards"], "summary": "Delete a board and its tasks (owner)", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/boards/{id}/members": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Boards"], "summary": "Add a member by email (admin)", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Already a member"}, "404": {"description": "Unknown email"}}}
        },
        "/boards/{id}/members/{userId}": {
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Boards"], "summary": "Remove a member (admin)", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "userId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Target is the owner"}}}
        },
        "/boards/{id}/events": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Realtime"], "summary": "Server-Sent Events for one board", "produces": ["text/event-stream"], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "token", "in": "query"}], "responses": {"200": {"description": "Event stream"}}}
        },
        "/tasks": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Tasks"], "summary": "Create a task at the tail of a column", "responses": {"201": {"description": "Created"}}}
        },
        "/tasks/board/{boardId}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Tasks"], "summary": "Tasks of a board ordered by position", "parameters": [{"type": "string", "name": "boardId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/tasks/reorder": {
            "patch": {"security": [{"BearerAuth": []}], "tags": ["Tasks"], "summary": "Apply a drag and drop batch", "responses": {"200": {"description": "OK"}, "400": {"description": "Malformed batch"}, "404": {"description": "Unknown task"}}}
        },
        "/tasks/{id}": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["Tasks"], "summary": "Partially update a task", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Tasks"], "summary": "Delete a task", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/tasks/{id}/move": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Tasks"], "summary": "Move a task before another task or to a column tail", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Taskboard API",
	Description:      "Collaborative kanban boards with realtime updates.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
