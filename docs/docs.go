// Package docs registers the OpenAPI document served at /swagger/*.
// Regenerate with: swag init -g cmd/server/main.go
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
        "/api/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Operator password", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/auth/change-password": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Change password",
                "parameters": [
                    {"description": "Old and new password", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.changePasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/products": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "List products",
                "description": "Newest first. status=All (or no status) disables the status filter; search matches name, IM code, barcode and sponsor.",
                "parameters": [
                    {"type": "string", "description": "Stock, Sales, Service or All", "name": "status", "in": "query"},
                    {"type": "string", "description": "Substring to search for", "name": "search", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.productListResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Add a product",
                "parameters": [
                    {"description": "Product record", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.productRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.createProductResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/products/scan/{barcode}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Look a product up by barcode",
                "description": "Exact match first, then a match ignoring surrounding whitespace.",
                "parameters": [
                    {"type": "string", "description": "Decoded barcode text", "name": "barcode", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.productResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/products/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Get a product",
                "parameters": [
                    {"type": "integer", "description": "Product id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.productResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Replace a product record",
                "parameters": [
                    {"type": "integer", "description": "Product id", "name": "id", "in": "path", "required": true},
                    {"description": "Product record", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.productRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Delete a product",
                "parameters": [
                    {"type": "integer", "description": "Product id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/api/products/{id}/sell": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Mark a product as sold",
                "parameters": [
                    {"type": "integer", "description": "Product id", "name": "id", "in": "path", "required": true},
                    {"description": "Sale details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.sellRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sellResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/products/{id}/receipt": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Printable bill for a sold product",
                "parameters": [
                    {"type": "integer", "description": "Product id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.receiptResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        }
    },
    "definitions": {
        "api.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "domain.Product": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "im_code": {"type": "string"},
                "status": {"type": "string"},
                "date": {"type": "string"},
                "sale_price": {"type": "number"},
                "sale_date": {"type": "string"},
                "service_date": {"type": "string"},
                "barcode": {"type": "string"},
                "storage": {"type": "string"},
                "ram": {"type": "string"},
                "sponsor_name": {"type": "string"},
                "buyer_name": {"type": "string"},
                "exchange_details": {"type": "string"},
                "description": {"type": "string"},
                "purchase_source": {"type": "string"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "properties": {"password": {"type": "string"}}
        },
        "handler.loginResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "token": {"type": "string"}}
        },
        "handler.changePasswordRequest": {
            "type": "object",
            "required": ["oldPassword", "newPassword"],
            "properties": {"oldPassword": {"type": "string"}, "newPassword": {"type": "string"}}
        },
        "handler.messageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "handler.productRequest": {
            "type": "object",
            "required": ["name", "status"],
            "properties": {
                "name": {"type": "string"},
                "im_code": {"type": "string"},
                "status": {"type": "string"},
                "date": {"type": "string"},
                "sale_price": {"type": "number"},
                "sale_date": {"type": "string"},
                "service_date": {"type": "string"},
                "barcode": {"type": "string"},
                "storage": {"type": "string"},
                "ram": {"type": "string"},
                "sponsor_name": {"type": "string"},
                "buyer_name": {"type": "string"},
                "exchange_details": {"type": "string"},
                "description": {"type": "string"},
                "purchase_source": {"type": "string"}
            }
        },
        "handler.productListResponse": {
            "type": "object",
            "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/domain.Product"}}}
        },
        "handler.productResponse": {
            "type": "object",
            "properties": {"data": {"$ref": "#/definitions/domain.Product"}}
        },
        "handler.createProductResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "id": {"type": "integer"}}
        },
        "handler.sellRequest": {
            "type": "object",
            "required": ["sale_price"],
            "properties": {
                "sale_price": {"type": "number"},
                "sale_date": {"type": "string"},
                "buyer_name": {"type": "string"},
                "exchange_details": {"type": "string"}
            }
        },
        "handler.sellResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "data": {"$ref": "#/definitions/domain.Product"}}
        },
        "handler.receiptResponse": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object",
                    "properties": {
                        "product_id": {"type": "integer"},
                        "item": {"type": "string"},
                        "specs": {"type": "string"},
                        "im_code": {"type": "string"},
                        "sponsor_name": {"type": "string"},
                        "buyer_name": {"type": "string"},
                        "exchange_details": {"type": "string"},
                        "sale_date": {"type": "string"},
                        "total": {"type": "string"},
                        "issued_at": {"type": "string"}
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Refonic Inventory API",
	Description:      "Phone inventory: products, barcode scan, sales and receipts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
