// Package docs holds the Swagger document for the PenLoft API.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@penloft.dev"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/ai/content": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Three title and description ideas for a topic",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ai"],
                "summary": "Suggest post ideas",
                "parameters": [
                    {
                        "description": "Topic",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {"topic": {"type": "string"}}
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "suggestions": {"type": "array", "items": {"$ref": "#/definitions/suggest.Suggestion"}}
                            }
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "502": {
                        "description": "Bad Gateway",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "code": {"type": "string"},
                                "error": {"type": "string"},
                                "suggestions": {"type": "array", "items": {"$ref": "#/definitions/suggest.Suggestion"}}
                            }
                        }
                    }
                }
            }
        },
        "/ai/tags": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "At least five tags for a draft of 50 or more characters",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ai"],
                "summary": "Suggest tags",
                "parameters": [
                    {
                        "description": "Draft content",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {"content": {"type": "string"}}
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "properties": {"tags": {"type": "array", "items": {"type": "string"}}}
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "502": {
                        "description": "Bad Gateway",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "code": {"type": "string"},
                                "error": {"type": "string"},
                                "tags": {"type": "array", "items": {"type": "string"}}
                            }
                        }
                    }
                }
            }
        },
        "/auth/login": {
            "post": {
                "description": "Authenticate with email and password and return a JWT",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "User login",
                "parameters": [
                    {
                        "description": "Login credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "email": {"type": "string"},
                                "password": {"type": "string"}
                            }
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "token": {"type": "string"},
                                "user": {"$ref": "#/definitions/models.User"}
                            }
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "User logout",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "properties": {"message": {"type": "string"}}}
                    },
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/auth/signup": {
            "post": {
                "description": "Register a new author account",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "User signup",
                "parameters": [
                    {
                        "description": "Signup request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "email": {"type": "string"},
                                "password": {"type": "string"},
                                "username": {"type": "string"}
                            }
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "token": {"type": "string"},
                                "user": {"$ref": "#/definitions/models.User"}
                            }
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/engagement/bookmark": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["engagement"],
                "summary": "Toggle bookmark",
                "parameters": [
                    {
                        "description": "Current card state",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/engagement.State"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/engagement.Outcome"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/engagement.Outcome"}}
                }
            }
        },
        "/engagement/like": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["engagement"],
                "summary": "Toggle like",
                "parameters": [
                    {
                        "description": "Current card state",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/engagement.State"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/engagement.Outcome"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/engagement.Outcome"}}
                }
            }
        },
        "/posts": {
            "get": {
                "description": "Newest first, optionally filtered by category",
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "List posts",
                "parameters": [
                    {"type": "string", "description": "Category name or All", "name": "category", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Post"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Publish a post",
                "parameters": [
                    {
                        "description": "Post",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "category": {"type": "string"},
                                "content": {"type": "string"},
                                "image_url": {"type": "string"},
                                "tag_list": {"type": "string"},
                                "tags": {"type": "array", "items": {"type": "string"}},
                                "title": {"type": "string"}
                            }
                        }
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Post"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/posts/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Search posts by title",
                "parameters": [
                    {"type": "string", "description": "Search text", "name": "q", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "open": {"type": "boolean"},
                                "posts": {"type": "array", "items": {"$ref": "#/definitions/models.Post"}}
                            }
                        }
                    },
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/posts/{slug}": {
            "get": {
                "description": "Post, author and related posts in the same category",
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Get post page",
                "parameters": [
                    {"type": "string", "description": "Post slug", "name": "slug", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.PostPage"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/session": {
            "get": {
                "description": "Viewer, call to action and feature flags for the header",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current session",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "authenticated": {"type": "boolean"},
                                "cta": {"type": "string"},
                                "cta_path": {"type": "string"},
                                "features": {"type": "object", "additionalProperties": {"type": "boolean"}},
                                "user": {"$ref": "#/definitions/models.User"}
                            }
                        }
                    }
                }
            }
        },
        "/users": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.User"}}}
                }
            }
        },
        "/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.User"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/users/{username}": {
            "get": {
                "description": "User, their posts newest first and aggregate stats",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "User profile",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/profile.Profile"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/users/{username}/available": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Username availability",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "available": {"type": "boolean"},
                                "reason": {"type": "string"}
                            }
                        }
                    }
                }
            }
        },
        "/ws/feed": {
            "get": {
                "description": "WebSocket stream of post_created events",
                "tags": ["feed"],
                "summary": "Live feed",
                "responses": {
                    "101": {"description": "Switching Protocols"},
                    "426": {"description": "Upgrade Required", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "engagement.Outcome": {
            "type": "object",
            "properties": {
                "redirect": {"type": "string"},
                "state": {"$ref": "#/definitions/engagement.State"}
            }
        },
        "engagement.State": {
            "type": "object",
            "properties": {
                "bookmarked": {"type": "boolean"},
                "like_count": {"type": "integer"},
                "liked": {"type": "boolean"}
            }
        },
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "string"},
                "error": {"type": "string"},
                "field": {"type": "string"}
            }
        },
        "models.Post": {
            "type": "object",
            "properties": {
                "author": {"$ref": "#/definitions/models.User"},
                "author_id": {"type": "integer"},
                "category": {
                    "type": "string",
                    "enum": ["Technology", "Lifestyle", "Business", "Creative", "Code"]
                },
                "content": {"type": "string"},
                "created_at": {"type": "string"},
                "id": {"type": "integer"},
                "image_url": {"type": "string"},
                "is_bookmarked": {"type": "boolean"},
                "likes": {"type": "integer"},
                "slug": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "title": {"type": "string"}
            }
        },
        "models.User": {
            "type": "object",
            "properties": {
                "avatar_url": {"type": "string"},
                "bio": {"type": "string"},
                "created_at": {"type": "string"},
                "fuid": {"type": "string"},
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "updated_at": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "profile.Profile": {
            "type": "object",
            "properties": {
                "posts": {"type": "array", "items": {"$ref": "#/definitions/models.Post"}},
                "stats": {"$ref": "#/definitions/profile.Stats"},
                "user": {"$ref": "#/definitions/models.User"}
            }
        },
        "profile.Stats": {
            "type": "object",
            "properties": {
                "post_count": {"type": "integer"},
                "total_likes": {"type": "integer"}
            }
        },
        "service.PostPage": {
            "type": "object",
            "properties": {
                "author": {"$ref": "#/definitions/models.User"},
                "post": {"$ref": "#/definitions/models.Post"},
                "related": {"type": "array", "items": {"$ref": "#/definitions/models.Post"}}
            }
        },
        "suggest.Suggestion": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "title": {"type": "string"}
            }
        }
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
	Host:             "localhost:8375",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "PenLoft API",
	Description:      "Blogging platform API with posts, search, profiles, engagement and AI writing suggestions",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
