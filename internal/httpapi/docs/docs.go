// Package docs holds the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/qexpand/docs.go -o internal/httpapi/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {"name": "qexpand maintainers"},
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/expand": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["expand"],
                "summary": "Expand a search query",
                "parameters": [
                    {"description": "Query to expand", "name": "request", "in": "body", "required": true,
                     "schema": {"$ref": "#/definitions/types.ExpandRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ExpandResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Model not ready", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Model health",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}}}
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Lifecycle status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/queue/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["queue"],
                "summary": "Overload queue depth",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.QueueStatus"}}}
            }
        },
        "/queue/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["queue"],
                "summary": "Queued job result",
                "parameters": [{"type": "string", "description": "Job id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.QueueJob"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ExpandRequest": {
            "type": "object",
            "properties": {
                "query": {"type": "string", "example": "ML algos"},
                "use_queue": {"type": "boolean", "example": false}
            }
        },
        "types.ExpandResponse": {
            "type": "object",
            "properties": {
                "original_query": {"type": "string", "example": "ML algos"},
                "expanded_query": {"type": "string", "example": "machine learning algorithms"},
                "processing_time": {"type": "number", "example": 0.104},
                "queued": {"type": "boolean", "example": false},
                "job_id": {"type": "string"},
                "degraded": {"type": "boolean", "example": false}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid JSON body"},
                "code": {"type": "integer", "example": 400}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "model_loaded": {"type": "boolean", "example": true},
                "strategy": {"type": "string", "example": "real"}
            }
        },
        "types.QueueStatus": {
            "type": "object",
            "properties": {
                "queue_enabled": {"type": "boolean", "example": true},
                "messages_available": {"type": "integer", "example": 3},
                "messages_in_flight": {"type": "integer", "example": 1},
                "messages_done": {"type": "integer", "example": 120},
                "error": {"type": "string"}
            }
        },
        "types.QueueJob": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "query": {"type": "string"},
                "state": {"type": "string", "example": "done"},
                "expanded_query": {"type": "string"},
                "error": {"type": "string"},
                "attempts": {"type": "integer"},
                "enqueued_unix": {"type": "integer"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "model": {"type": "string", "example": "meta-llama/Llama-3.1-8B-Instruct"},
                "stage": {"type": "string", "example": "ready"},
                "device": {"type": "string", "example": "cpu"},
                "strategy": {"type": "string", "example": "real"},
                "ready": {"type": "boolean", "example": true},
                "error": {"type": "string"},
                "queue_len": {"type": "integer", "example": 0},
                "inflight": {"type": "integer", "example": 1},
                "max_queue_depth": {"type": "integer", "example": 32},
                "loads_total": {"type": "integer", "example": 1},
                "fallbacks_total": {"type": "integer", "example": 0},
                "uptime_seconds": {"type": "integer", "example": 3600},
                "server_time_unix": {"type": "integer", "example": 1700000000}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "qexpand API",
	Description:      "HTTP API for LLM-backed search query expansion.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
