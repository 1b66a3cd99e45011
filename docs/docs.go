// Package docs holds the OpenAPI description served at /swagger/index.html.
// Regenerate with `swag init -g cmd/server/main.go`.
package docs

import "github.com/swaggo/swag"

// @tag.name Users
// @tag.description Registration and login

// @tag.name Organizations
// @tag.description Organization management

// @tag.name Teams
// @tag.description Teams, members and roles

// @tag.name Tasks
// @tag.description Task lifecycle, filtering and sorting

// @tag.name Dashboards
// @tag.description User, admin and team dashboards

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
        "/register": {"post": {"tags": ["Users"], "summary": "Register a user", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/login": {"post": {"tags": ["Users"], "summary": "Log in and receive a JWT", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/organization/create": {"post": {"security": [{"BearerAuth": []}], "tags": ["Organizations"], "summary": "Create an organization (super admin only)", "responses": {"201": {"description": "Created"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}}},
        "/organizations/{org_id}/add_user/{user_id}": {"post": {"security": [{"BearerAuth": []}], "tags": ["Organizations"], "summary": "Attach a user to an organization", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}},
        "/team-create": {"post": {"security": [{"BearerAuth": []}], "tags": ["Teams"], "summary": "Create a team", "responses": {"201": {"description": "Created"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}}},
        "/team/{id}": {"delete": {"security": [{"BearerAuth": []}], "tags": ["Teams"], "summary": "Delete a team with its tasks and memberships", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/team/{id}/add-member": {"post": {"security": [{"BearerAuth": []}], "tags": ["Teams"], "summary": "Add a user to a team", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/team/{id}/remove-member": {"delete": {"security": [{"BearerAuth": []}], "tags": ["Teams"], "summary": "Remove a user from a team", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/team/{id}/members": {"get": {"security": [{"BearerAuth": []}], "tags": ["Teams"], "summary": "List team members", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/roles": {"get": {"security": [{"BearerAuth": []}], "tags": ["Teams"], "summary": "List the team role catalog", "responses": {"200": {"description": "OK"}}}},
        "/task/{team_id}/create-task": {"post": {"security": [{"BearerAuth": []}], "tags": ["Tasks"], "summary": "Create a task in a team", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}},
        "/task/{team_id}/update-task": {"put": {"security": [{"BearerAuth": []}], "tags": ["Tasks"], "summary": "Partially update a task", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}},
        "/task/{team_id}/delete-task": {"delete": {"security": [{"BearerAuth": []}], "tags": ["Tasks"], "summary": "Delete a task", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}},
        "/task/{team_id}/tasks/{task_id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["Tasks"], "summary": "Get a task of a team", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/task/sortfilter": {"get": {"security": [{"BearerAuth": []}], "tags": ["Tasks"], "summary": "Filter and sort tasks", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/dashboard/user-dashboard": {"get": {"security": [{"BearerAuth": []}], "tags": ["Dashboards"], "summary": "Tasks assigned to, created by and reviewed by the caller", "responses": {"200": {"description": "OK"}}}},
        "/dashboard/admin-dashboard": {"get": {"security": [{"BearerAuth": []}], "tags": ["Dashboards"], "summary": "Organization totals and recent activity", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/dashboard/team-dashboard/{team_id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["Dashboards"], "summary": "Open work of a team", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/ws/notifications": {"get": {"tags": ["notifications"], "summary": "Subscribe to task notifications", "responses": {"101": {"description": "Switching Protocols"}, "401": {"description": "Unauthorized"}}}}
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
	Title:            "Taskflow API",
	Description:      "Multi-tenant task management: organizations, teams, tasks and live notifications.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
