// Package docs registers the OpenAPI description served under /swagger.
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
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "User registration details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.registerResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/purchases": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["purchases"],
                "summary": "List purchases",
                "parameters": [
                    {"type": "string", "name": "baseId", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "equipmentType", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "dateFrom", "in": "query"},
                    {"type": "string", "name": "dateTo", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.listPurchasesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["purchases"],
                "summary": "Raise a purchase order",
                "parameters": [
                    {"type": "string", "description": "Idempotency key to prevent duplicate submissions", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Purchase details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createPurchaseRequest"}}
                ],
                "responses": {
                    "200": {"description": "Replayed idempotent request", "schema": {"$ref": "#/definitions/handler.purchaseResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.purchaseResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/purchases/events": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Ingest a single purchase event",
                "parameters": [
                    {"description": "Purchase event", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.purchaseEventRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handler.acceptedResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/purchases/events/batch": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Ingest a batch of purchase events",
                "parameters": [
                    {"description": "Array of purchase events", "name": "body", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.purchaseEventRequest"}}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handler.acceptedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/purchases/{orderNumber}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["purchases"],
                "summary": "Get a purchase by order number",
                "parameters": [
                    {"type": "string", "name": "orderNumber", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.purchaseResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/purchases/{orderNumber}/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["purchases"],
                "summary": "Cancel a purchase",
                "parameters": [
                    {"type": "string", "name": "orderNumber", "in": "path", "required": true},
                    {"description": "Optional notes", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/handler.transitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.purchaseResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/purchases/{orderNumber}/deliver": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["purchases"],
                "summary": "Mark a purchase delivered",
                "parameters": [
                    {"type": "string", "name": "orderNumber", "in": "path", "required": true},
                    {"description": "Optional notes", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/handler.transitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.purchaseResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "role": {"type": "string", "enum": ["Admin", "BaseCommander", "LogisticsOfficer"]},
                "assignedBase": {"type": "string"},
                "active": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "handler.acceptedResponse": {
            "type": "object",
            "properties": {"count": {"type": "integer"}, "message": {"type": "string"}}
        },
        "handler.createPurchaseRequest": {
            "type": "object",
            "required": ["baseId", "currency", "equipmentType", "quantity", "supplier", "unitCost"],
            "properties": {
                "baseId": {"type": "string"},
                "currency": {"type": "string"},
                "equipmentType": {"type": "string"},
                "expectedDelivery": {"type": "string"},
                "quantity": {"type": "integer"},
                "supplier": {"type": "string"},
                "unitCost": {"type": "number"}
            }
        },
        "handler.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handler.listPurchasesResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/handler.purchaseResponse"}},
                "pagination": {
                    "type": "object",
                    "properties": {
                        "limit": {"type": "integer"},
                        "page": {"type": "integer"},
                        "total": {"type": "integer"},
                        "totalPages": {"type": "integer"}
                    }
                }
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {"password": {"type": "string"}, "username": {"type": "string"}}
        },
        "handler.loginResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "user": {"$ref": "#/definitions/domain.User"}}
        },
        "handler.purchaseEventRequest": {
            "type": "object",
            "required": ["orderNumber", "source", "status", "timestamp"],
            "properties": {
                "notes": {"type": "string"},
                "orderNumber": {"type": "string"},
                "source": {"type": "string"},
                "status": {"type": "string", "enum": ["Delivered", "Cancelled"]},
                "timestamp": {"type": "string"}
            }
        },
        "handler.purchaseResponse": {
            "type": "object",
            "properties": {
                "orderNumber": {"type": "string"},
                "baseId": {"type": "string"},
                "equipmentType": {"type": "string"},
                "quantity": {"type": "integer"},
                "unitCost": {"type": "number"},
                "totalCost": {"type": "number"},
                "currency": {"type": "string"},
                "supplier": {"type": "string"},
                "status": {"type": "string"},
                "orderedBy": {"type": "string"},
                "createdAt": {"type": "string"},
                "expectedDelivery": {"type": "string"},
                "statusHistory": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "actor": {"type": "string"},
                            "notes": {"type": "string"},
                            "status": {"type": "string"},
                            "timestamp": {"type": "string"}
                        }
                    }
                },
                "_links": {
                    "type": "object",
                    "properties": {"cancel": {"type": "string"}, "deliver": {"type": "string"}, "self": {"type": "string"}}
                }
            }
        },
        "handler.registerRequest": {
            "type": "object",
            "required": ["password", "role", "username"],
            "properties": {
                "assignedBase": {"type": "string"},
                "email": {"type": "string"},
                "fullName": {"type": "string"},
                "password": {"type": "string", "minLength": 8},
                "role": {"type": "string", "enum": ["Admin", "BaseCommander", "LogisticsOfficer"]},
                "username": {"type": "string", "minLength": 3}
            }
        },
        "handler.registerResponse": {
            "type": "object",
            "properties": {"user": {"$ref": "#/definitions/domain.User"}}
        },
        "handler.transitionRequest": {
            "type": "object",
            "properties": {"notes": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "MRMS API",
	Description:      "Military resource management: accounts, purchase orders and logistics feed events.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
