package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Conference Scheduler API",
        "description": "Presentation scheduling and confirmation service for conference papers",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Administrator login"},
        {"name": "Catalog", "description": "Fixed session and track reference data"},
        {"name": "Papers", "description": "Accepted paper intake and queries"},
        {"name": "Schedule", "description": "Assignment creation, rescheduling and availability"},
        {"name": "Confirmations", "description": "Author confirmation tokens and mail-outs"},
        {"name": "Exports", "description": "Schedule downloads"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Admin login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List the session catalog",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tracks": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List the conference tracks",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/papers": {
            "get": {
                "tags": ["Papers"],
                "summary": "List papers",
                "parameters": [
                    {"name": "track", "in": "query", "type": "string"},
                    {"name": "unscheduled", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Papers"],
                "summary": "Register an accepted paper",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePaperRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/papers/{paperId}": {
            "get": {
                "tags": ["Papers"],
                "summary": "Get a paper",
                "parameters": [
                    {"name": "paperId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Schedule"],
                "summary": "List the full schedule",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Schedule"],
                "summary": "Schedule one or more papers",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/ScheduleProposal"}}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Rule violation", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot taken or capacity reached", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{paperId}": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Get the assignment for a paper",
                "parameters": [
                    {"name": "paperId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Schedule"],
                "summary": "Move a paper to a new slot",
                "parameters": [
                    {"name": "paperId", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RescheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot taken or capacity reached", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Schedule"],
                "summary": "Remove a paper's assignment",
                "parameters": [
                    {"name": "paperId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/check-conflicts": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Dry-run a batch against the scheduling rules",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/ScheduleProposal"}}}
                ],
                "responses": {
                    "200": {"description": "Valid", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Rule violation", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/check-availability": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Check whether a slot is free",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "session", "in": "query", "required": true, "type": "string"},
                    {"name": "timeSlot", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/session-capacity": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Report session occupancy",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "session", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/available-slots": {
            "get": {
                "tags": ["Schedule"],
                "summary": "List slot availability for a conference day",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/confirmations/resolve": {
            "get": {
                "tags": ["Confirmations"],
                "summary": "Resolve a confirmation token",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"},
                    {"name": "action", "in": "query", "required": true, "type": "string", "enum": ["confirm", "deny", "reschedule"]}
                ],
                "responses": {
                    "200": {"description": "Resolved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already resolved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/confirmations/send-emails": {
            "post": {
                "tags": ["Confirmations"],
                "summary": "Mail confirmation requests to every uncontacted assignment",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/confirmations/send/{paperId}": {
            "post": {
                "tags": ["Confirmations"],
                "summary": "Mail the confirmation request for one paper",
                "parameters": [
                    {"name": "paperId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/schedule.csv": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download the schedule as CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/exports/schedule.pdf": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download the schedule as PDF",
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreatePaperRequest": {
            "type": "object",
            "required": ["paper_id", "email", "contact", "title", "mode", "track"],
            "properties": {
                "paper_id": {"type": "integer"},
                "email": {"type": "string"},
                "contact": {"type": "string"},
                "title": {"type": "string"},
                "mode": {"type": "string", "enum": ["online", "offline"]},
                "track": {"type": "string"}
            }
        },
        "ScheduleProposal": {
            "type": "object",
            "required": ["paper_id", "session", "date", "time_slot", "track", "mode"],
            "properties": {
                "paper_id": {"type": "integer"},
                "session": {"type": "string"},
                "date": {"type": "string"},
                "time_slot": {"type": "string"},
                "track": {"type": "string"},
                "mode": {"type": "string"}
            }
        },
        "RescheduleRequest": {
            "type": "object",
            "required": ["session", "date", "time_slot"],
            "properties": {
                "session": {"type": "string"},
                "date": {"type": "string"},
                "time_slot": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
