package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Course Planner API",
        "description": "Generates ranked, conflict-free course schedules from a section catalog.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Schedules", "description": "Schedule generation, retrieval and export"},
        {"name": "Catalog", "description": "Section and instructor rating synchronisation"},
        {"name": "Metrics", "description": "Instrumentation"}
    ],
    "paths": {
        "/schedules/generate": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Generate ranked conflict-free schedules",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No course could be scheduled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/results/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Fetch a previously generated result",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/results/{id}/export": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Export one ranked schedule as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "rank", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Attachment", "schema": {"type": "file"}},
                    "404": {"description": "Unknown result or rank", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog/sections/import": {
            "post": {
                "tags": ["Catalog"],
                "summary": "Queue a section import",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportSectionsRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog/ratings/sync": {
            "post": {
                "tags": ["Catalog"],
                "summary": "Queue an instructor rating refresh",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/SyncRatingsRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog/jobs/{id}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Inspect a catalog job",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Instrumentation snapshot",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CourseInput": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "credits": {"type": "integer"},
                "categories": {"type": "array", "items": {"type": "string"}},
                "preferenceScore": {"type": "number"},
                "isMajorCourse": {"type": "boolean"},
                "prerequisitesMet": {"type": "boolean"}
            }
        },
        "GenerateScheduleRequest": {
            "type": "object",
            "required": ["courses", "targetCredits"],
            "properties": {
                "courses": {"type": "array", "items": {"$ref": "#/definitions/CourseInput"}},
                "targetCredits": {"type": "integer"},
                "tolerance": {"type": "integer"},
                "maxResults": {"type": "integer"},
                "strategy": {"type": "string", "enum": ["dp", "dfs"]},
                "completedCourses": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ImportSectionsRequest": {
            "type": "object",
            "required": ["courseIds"],
            "properties": {
                "courseIds": {"type": "array", "items": {"type": "string"}}
            }
        },
        "SyncRatingsRequest": {
            "type": "object",
            "properties": {
                "instructors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
