// Package docs registers the OpenAPI description served at /swagger.
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
        "/register/": {
            "post": {
                "tags": ["auth"],
                "summary": "Create an account and receive a token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterInput"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/AuthResult"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/login/": {
            "post": {
                "tags": ["auth"],
                "summary": "Exchange credentials for a token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/LoginInput"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AuthResult"}},
                    "400": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/posts/{id}/like/": {
            "post": {
                "security": [{"TokenAuth": []}],
                "tags": ["posts"],
                "summary": "Like a post",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "201": {"description": "Liked"},
                    "400": {"description": "Already liked", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/posts/{id}/unlike/": {
            "post": {
                "security": [{"TokenAuth": []}],
                "tags": ["posts"],
                "summary": "Remove a like",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Unliked"},
                    "400": {"description": "Not liked", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/follow/{id}/": {
            "post": {
                "security": [{"TokenAuth": []}],
                "tags": ["users"],
                "summary": "Follow a user",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Followed"},
                    "400": {"description": "Self-follow or already following", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/unfollow/{id}/": {
            "post": {
                "security": [{"TokenAuth": []}],
                "tags": ["users"],
                "summary": "Stop following a user",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Unfollowed"},
                    "400": {"description": "Self-target or not following", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/books/": {
            "get": {
                "tags": ["books"],
                "summary": "List books",
                "parameters": [
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "author", "in": "query"},
                    {"type": "integer", "name": "year", "in": "query"},
                    {"type": "string", "name": "ordering", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"TokenAuth": []}],
                "tags": ["books"],
                "summary": "Create a book",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "RegisterInput": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "bio": {"type": "string"},
                "birth_date": {"type": "string", "example": "1990-01-31"}
            }
        },
        "LoginInput": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "AuthResult": {
            "type": "object",
            "properties": {
                "user": {"type": "object"},
                "token": {"type": "string"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}
            }
        }
    },
    "securityDefinitions": {
        "TokenAuth": {
            "description": "Type \"Bearer\" or \"Token\" followed by a space and the access token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Agora API",
	Description:      "Social API with posts, comments, likes, follows, notifications and a shared book catalog.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
