package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LMS API",
        "description": "Grade computation and video progress engine for the LMS.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication and session management"},
        {"name": "Grade Components", "description": "Grade component registry"},
        {"name": "Grade Rules", "description": "Per-subject and per-class grading rules"},
        {"name": "Grades", "description": "Grade entry, boards and finalization"},
        {"name": "Progress", "description": "Video progress and sequential lesson locks"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grade-components": {
            "get": {
                "tags": ["Grade Components"],
                "summary": "List grade components",
                "parameters": [
                    {"name": "include_inactive", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Grade Components"],
                "summary": "Create grade component",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateGradeComponentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate component code"}
                }
            }
        },
        "/grade-components/{code}": {
            "put": {
                "tags": ["Grade Components"],
                "summary": "Update grade component",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateGradeComponentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Grade Components"],
                "summary": "Delete grade component",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Component referenced by existing grades"}
                }
            }
        },
        "/grade-rules": {
            "get": {
                "tags": ["Grade Rules"],
                "summary": "List grading rules for a subject",
                "parameters": [
                    {"name": "subject_id", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Grade Rules"],
                "summary": "Create or update a grading rule",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertGradeRuleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid component weights"}
                }
            }
        },
        "/grade-rules/resolve": {
            "get": {
                "tags": ["Grade Rules"],
                "summary": "Resolve the effective rule for a class",
                "parameters": [
                    {"name": "subject_id", "in": "query", "required": true, "type": "string"},
                    {"name": "class_id", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades": {
            "post": {
                "tags": ["Grades"],
                "summary": "Save a component score for a student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveGradeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Grade is finalized"}
                }
            }
        },
        "/classes/{classId}/grades": {
            "get": {
                "tags": ["Grades"],
                "summary": "Grade board for a class",
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{classId}/grades/{studentId}": {
            "get": {
                "tags": ["Grades"],
                "summary": "Final grade snapshot for a student",
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not calculated yet"}
                }
            }
        },
        "/classes/{classId}/grades/recalculate": {
            "post": {
                "tags": ["Grades"],
                "summary": "Recalculate final grades for a class",
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Recalculated"}
                }
            }
        },
        "/classes/{classId}/grades/finalize": {
            "post": {
                "tags": ["Grades"],
                "summary": "Finalize grades for a class",
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Finalized"}
                }
            }
        },
        "/classes/{classId}/grades/export": {
            "get": {
                "tags": ["Grades"],
                "summary": "Export the class grade board",
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/progress/watch": {
            "post": {
                "tags": ["Progress"],
                "summary": "Record a video watch tick",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordWatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/chapters/{chapterId}/locks": {
            "get": {
                "tags": ["Progress"],
                "summary": "Lock state for every lesson in a chapter",
                "parameters": [
                    {"name": "chapterId", "in": "path", "required": true, "type": "string"},
                    {"name": "student_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/chapters/{chapterId}/progress": {
            "get": {
                "tags": ["Progress"],
                "summary": "Progress rollup for one chapter",
                "parameters": [
                    {"name": "chapterId", "in": "path", "required": true, "type": "string"},
                    {"name": "student_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects/{subjectId}/progress": {
            "get": {
                "tags": ["Progress"],
                "summary": "Subject progress with chapter breakdown",
                "parameters": [
                    {"name": "subjectId", "in": "path", "required": true, "type": "string"},
                    {"name": "student_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateGradeComponentRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "default_weight": {"type": "number"},
                "sort_order": {"type": "integer"}
            },
            "required": ["code", "name"]
        },
        "UpdateGradeComponentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "default_weight": {"type": "number"},
                "sort_order": {"type": "integer"},
                "is_active": {"type": "boolean"}
            },
            "required": ["name"]
        },
        "UpsertGradeRuleRequest": {
            "type": "object",
            "properties": {
                "subject_id": {"type": "string"},
                "class_id": {"type": "string"},
                "pass_grade": {"type": "number"},
                "min_video_progress": {"type": "number"},
                "require_video_progress": {"type": "boolean"},
                "min_assignments": {"type": "integer"},
                "min_attendance_rate": {"type": "number"},
                "weights": {"type": "object", "additionalProperties": {"type": "number"}},
                "is_active": {"type": "boolean"}
            },
            "required": ["subject_id", "weights"]
        },
        "SaveGradeRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "class_id": {"type": "string"},
                "component_code": {"type": "string"},
                "score": {"type": "number"},
                "max_score": {"type": "number"}
            },
            "required": ["student_id", "class_id", "component_code", "score", "max_score"]
        },
        "RecordWatchRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "lesson_id": {"type": "string"},
                "watched_seconds": {"type": "integer"},
                "duration_seconds": {"type": "integer"}
            },
            "required": ["lesson_id"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
