package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Demand Desk API",
        "description": "Tutoring demand intake, operator status workflow and live notifications",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Demands", "description": "Submitter demand intake and tracking"},
        {"name": "Admin", "description": "Operator desk"},
        {"name": "Catalog", "description": "Grades and subjects"},
        {"name": "Realtime", "description": "Websocket live channel"}
    ],
    "paths": {
        "/demands": {
            "post": {
                "tags": ["Demands"],
                "summary": "Submit a tutoring demand",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateDemandRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/DemandResponse"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/demands/my": {
            "get": {
                "tags": ["Demands"],
                "summary": "List the caller's demands",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/DemandListResponse"}}
                }
            }
        },
        "/demands/{id}": {
            "get": {
                "tags": ["Demands"],
                "summary": "Get one of the caller's demands with its status history",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/DemandResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/demands/{id}/status": {
            "put": {
                "tags": ["Demands"],
                "summary": "Change a demand's status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "integer"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/UpdateDemandStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/demands": {
            "get": {
                "tags": ["Admin"],
                "summary": "List all demands",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "limit", "type": "integer"},
                    {"in": "query", "name": "status", "type": "string", "enum": ["all", "PENDING", "FOLLOWING_UP", "MATCHED", "CLOSED"]},
                    {"in": "query", "name": "search", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/demands/{id}/status": {
            "put": {
                "tags": ["Admin"],
                "summary": "Change a demand's status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "integer"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/UpdateDemandStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/demands/{id}/history": {
            "get": {
                "tags": ["Admin"],
                "summary": "Status history of a demand",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List active subjects",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects/grades": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List grades",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ws": {
            "get": {
                "tags": ["Realtime"],
                "summary": "Open the live notification channel",
                "description": "Websocket upgrade. Frames are {event, data}. Send join-user-room or join-operator-room to subscribe.",
                "parameters": [
                    {"in": "query", "name": "token", "type": "string"}
                ],
                "responses": {
                    "101": {"description": "Switching protocols"},
                    "401": {"description": "Invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateDemandRequest": {
            "type": "object",
            "required": ["gradeId", "subjectId", "locationAddress", "hourlyPrice"],
            "properties": {
                "gradeId": {"type": "integer"},
                "subjectId": {"type": "integer"},
                "locationAddress": {"type": "string"},
                "hourlyPrice": {"type": "number", "minimum": 0, "exclusiveMinimum": true, "maximum": 100000000, "exclusiveMaximum": true}
            }
        },
        "UpdateDemandStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["PENDING", "FOLLOWING_UP", "MATCHED", "CLOSED"]},
                "remark": {"type": "string"}
            }
        },
        "StatusLog": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "demandId": {"type": "integer"},
                "oldStatus": {"type": "string"},
                "newStatus": {"type": "string"},
                "operatorId": {"type": "integer"},
                "remark": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "Demand": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "userId": {"type": "integer"},
                "gradeId": {"type": "integer"},
                "subjectId": {"type": "integer"},
                "locationAddress": {"type": "string"},
                "hourlyPrice": {"type": "number"},
                "status": {"type": "string"},
                "gradeName": {"type": "string"},
                "subjectName": {"type": "string"},
                "userNickname": {"type": "string"},
                "userPhone": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"},
                "statusLogs": {"type": "array", "items": {"$ref": "#/definitions/StatusLog"}}
            }
        },
        "DemandResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "demand": {"$ref": "#/definitions/Demand"}
            }
        },
        "DemandListResponse": {
            "type": "object",
            "properties": {
                "demands": {"type": "array", "items": {"$ref": "#/definitions/Demand"}},
                "pagination": {"$ref": "#/definitions/Pagination"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "totalPages": {"type": "integer"}
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
                "success": {"type": "boolean"},
                "data": {"type": "object"},
                "message": {"type": "string"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"}
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
