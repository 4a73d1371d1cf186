// Package docs holds the OpenAPI description served at /swagger when
// SWAGGER_ENABLED is set. Regenerate with `swag init -g cmd/server/main.go -o internal/docs`.
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
        "/workflows": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Workflows"],
                "summary": "List workflows (paginated)",
                "operationId": "listWorkflows",
                "parameters": [
                    {"type": "string", "description": "User ID (demo header)", "name": "X-User-ID", "in": "header"},
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/respond.SuccessEnvelope"}},
                    "304": {"description": "Not Modified"},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/respond.ErrorEnvelope"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Workflows"],
                "summary": "Create a workflow",
                "operationId": "createWorkflow",
                "parameters": [
                    {"type": "string", "description": "User ID (demo header)", "name": "X-User-ID", "in": "header"},
                    {"type": "string", "description": "Idempotency key for safe retries", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Workflow", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateWorkflowRequest"}}
                ],
                "responses": {
                    "200": {"description": "Replayed", "schema": {"$ref": "#/definitions/respond.SuccessEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/respond.SuccessEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/respond.ErrorEnvelope"}},
                    "500": {"description": "Duplicate name or internal error", "schema": {"$ref": "#/definitions/respond.ErrorEnvelope"}}
                }
            }
        },
        "/workflows/count": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Workflows"],
                "summary": "Count workflows",
                "operationId": "countWorkflows",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CountResponse"}}
                }
            }
        },
        "/workflows/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Workflows"],
                "summary": "Get a workflow",
                "operationId": "getWorkflow",
                "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/respond.SuccessEnvelope"}},
                    "404": {"description": "Workflow not found", "schema": {"$ref": "#/definitions/respond.ErrorEnvelope"}}
                }
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Workflows"],
                "summary": "Rename a workflow",
                "operationId": "renameWorkflow",
                "parameters": [
                    {"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RenameWorkflowRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/respond.SuccessEnvelope"}},
                    "500": {"description": "Duplicate name or internal error", "schema": {"$ref": "#/definitions/respond.ErrorEnvelope"}}
                }
            }
        },
        "/workflows/{id}/export": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Workflows"],
                "summary": "Export a workflow",
                "operationId": "exportWorkflow",
                "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "file"}}}
            }
        },
        "/workflows/{id}/test-webhook": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Workflows"],
                "summary": "Send a test delivery to the workflow webhook",
                "operationId": "testWorkflowWebhook",
                "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/respond.SuccessEnvelope"}},
                    "500": {"description": "Upstream failure", "schema": {"$ref": "#/definitions/respond.ErrorEnvelope"}}
                }
            }
        },
        "/tags": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Tags"],
                "summary": "List tags",
                "operationId": "listTags",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/respond.SuccessEnvelope"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tags"],
                "summary": "Create a tag",
                "operationId": "createTag",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateTagRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/respond.SuccessEnvelope"}},
                    "500": {"description": "Duplicate name or internal error", "schema": {"$ref": "#/definitions/respond.ErrorEnvelope"}}
                }
            }
        },
        "/license/activate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["License"],
                "summary": "Activate a license",
                "operationId": "activateLicense",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ActivateLicenseRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/respond.SuccessEnvelope"}},
                    "400": {"description": "EULA not accepted or invalid key", "schema": {"$ref": "#/definitions/respond.ErrorEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ActivateLicenseRequest": {
            "type": "object",
            "required": ["licenseKey"],
            "properties": {
                "eulaAccepted": {"type": "boolean", "example": true},
                "licenseKey": {"type": "string", "example": "ABCD-1234-EFGH-5678"}
            }
        },
        "handlers.CountResponse": {
            "type": "object",
            "properties": {"count": {"type": "integer", "example": 3}}
        },
        "handlers.CreateTagRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {"name": {"type": "string", "maxLength": 64, "example": "billing"}}
        },
        "handlers.CreateWorkflowRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "active": {"type": "boolean", "example": false},
                "formPath": {"type": "string", "maxLength": 128, "example": "contact-us"},
                "name": {"type": "string", "maxLength": 256, "example": "Order sync"},
                "nodes": {"type": "array", "items": {"type": "object"}},
                "webhookUrl": {"type": "string", "maxLength": 2048, "example": "https://hooks.example.com/orders"}
            }
        },
        "handlers.RenameWorkflowRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {"name": {"type": "string", "maxLength": 256, "example": "Order sync v2"}}
        },
        "respond.ErrorEnvelope": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 404},
                "hint": {"type": "string"},
                "message": {"type": "string", "example": "workflow not found"},
                "meta": {"type": "object", "additionalProperties": true},
                "stacktrace": {"type": "string"}
            }
        },
        "respond.SuccessEnvelope": {
            "type": "object",
            "properties": {"data": {}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Workflow Backend API",
	Description:      "Workflow automation backend. Errors use the {code, message, hint, meta} envelope.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
