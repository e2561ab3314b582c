// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go
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
        "/users": {
            "post": {
                "tags": [
                    "users"
                ],
                "summary": "Create a new user",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Created"
                    },
                    "400": {
                        "description": "Bad Request"
                    }
                },
                "parameters": [
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ]
            },
            "get": {
                "tags": [
                    "users"
                ],
                "summary": "List all users",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": [
                    "users"
                ],
                "summary": "Get user by ID",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ]
            },
            "put": {
                "tags": [
                    "users"
                ],
                "summary": "Update a user",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ]
            },
            "delete": {
                "tags": [
                    "users"
                ],
                "summary": "Delete a user",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/groups": {
            "post": {
                "tags": [
                    "groups"
                ],
                "summary": "Create a new group",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Created"
                    },
                    "400": {
                        "description": "Bad Request"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ]
            },
            "get": {
                "tags": [
                    "groups"
                ],
                "summary": "List my groups",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    }
                ]
            }
        },
        "/groups/{id}": {
            "get": {
                "tags": [
                    "groups"
                ],
                "summary": "Get group by ID",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ]
            },
            "put": {
                "tags": [
                    "groups"
                ],
                "summary": "Update a group",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ]
            },
            "delete": {
                "tags": [
                    "groups"
                ],
                "summary": "Delete a group",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/groups/{id}/members": {
            "post": {
                "tags": [
                    "groups"
                ],
                "summary": "Add member to group",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Created"
                    },
                    "400": {
                        "description": "Bad Request"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ]
            },
            "get": {
                "tags": [
                    "groups"
                ],
                "summary": "Get group members",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/groups/{id}/members/{userId}": {
            "delete": {
                "tags": [
                    "groups"
                ],
                "summary": "Remove member from group",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "name": "userId",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/expenses": {
            "post": {
                "tags": [
                    "expenses"
                ],
                "summary": "Create a new expense",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Created"
                    },
                    "400": {
                        "description": "Bad Request"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ]
            },
            "get": {
                "tags": [
                    "expenses"
                ],
                "summary": "List my expenses",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    }
                ]
            }
        },
        "/expenses/{id}": {
            "get": {
                "tags": [
                    "expenses"
                ],
                "summary": "Get expense by ID",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ]
            },
            "put": {
                "tags": [
                    "expenses"
                ],
                "summary": "Update an expense",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ]
            },
            "delete": {
                "tags": [
                    "expenses"
                ],
                "summary": "Delete an expense",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/expenses/group/{groupId}": {
            "get": {
                "tags": [
                    "expenses"
                ],
                "summary": "List group expenses",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "name": "groupId",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/settlements": {
            "post": {
                "tags": [
                    "settlements"
                ],
                "summary": "Record a settlement",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "Created"
                    },
                    "400": {
                        "description": "Bad Request"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ]
            },
            "get": {
                "tags": [
                    "settlements"
                ],
                "summary": "List my settlements",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    }
                ]
            }
        },
        "/settlements/group/{groupId}": {
            "get": {
                "tags": [
                    "settlements"
                ],
                "summary": "List group settlements",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "name": "groupId",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/balances": {
            "get": {
                "tags": [
                    "balances"
                ],
                "summary": "Overall balances",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    }
                ]
            }
        },
        "/balances/group/{groupId}": {
            "get": {
                "tags": [
                    "balances"
                ],
                "summary": "Group balances",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "name": "groupId",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/balances/group/{groupId}/suggest": {
            "get": {
                "tags": [
                    "balances"
                ],
                "summary": "Settle-up suggestions",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "name": "groupId",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/notifications": {
            "get": {
                "tags": [
                    "notifications"
                ],
                "summary": "List notifications",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    }
                ]
            }
        },
        "/notifications/unread-count": {
            "get": {
                "tags": [
                    "notifications"
                ],
                "summary": "Unread notification count",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    }
                ]
            }
        },
        "/notifications/{id}/read": {
            "post": {
                "tags": [
                    "notifications"
                ],
                "summary": "Mark a notification as read",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/notifications/read-all": {
            "post": {
                "tags": [
                    "notifications"
                ],
                "summary": "Mark all notifications as read",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Caller user ID",
                        "name": "X-User-ID",
                        "in": "header"
                    }
                ]
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "SettleUp API",
	Description:      "Shared expense ledger with balances and settle-up suggestions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
