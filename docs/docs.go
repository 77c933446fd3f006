// Package docs registers the OpenAPI description served under /swagger. The
// paths mirror the @Router annotations on the handlers.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/account": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["account"], "summary": "Get my account"},
            "put": {"security": [{"BearerAuth": []}], "description": "Updates profile fields. A changed email must be verified again. A professor email files a supervision request.", "tags": ["account"], "summary": "Update my account"}
        },
        "/account/interests": {"put": {"security": [{"BearerAuth": []}], "tags": ["account"], "summary": "Set my interests"}},
        "/users/{username}": {"get": {"description": "Public page of a user. isFollowing is set when the caller is authenticated.", "tags": ["users"], "summary": "Get a user's profile"}},
        "/auth/register": {"post": {"description": "Creates a student or professor account and mails a verification link. No session is issued.", "tags": ["auth"], "summary": "Register a new user"}},
        "/auth/login": {"post": {"description": "Authenticates a user and returns an access token and a refresh token", "tags": ["auth"], "summary": "User login"}},
        "/auth/refresh": {"post": {"description": "Rotates a refresh token and returns a new token pair", "tags": ["auth"], "summary": "Refresh access token"}},
        "/auth/logout": {"post": {"description": "Revokes the given refresh token. Unknown tokens are ignored.", "tags": ["auth"], "summary": "Log out"}},
        "/auth/verify/{token}": {"get": {"description": "Verifies a user's email address using the token from the verification mail", "tags": ["auth"], "summary": "Verify email address"}},
        "/auth/resend-verification": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Resend verification email"}},
        "/trending": {"get": {"tags": ["discovery"], "summary": "Trending posts and users"}},
        "/search": {"get": {"description": "Case-sensitive substring match on names", "tags": ["discovery"], "summary": "Search"}},
        "/interests": {"get": {"tags": ["discovery"], "summary": "List interests"}},
        "/health": {"get": {"tags": ["health"], "summary": "Health check"}},
        "/labs": {
            "get": {"tags": ["labs"], "summary": "List labs"},
            "post": {"security": [{"BearerAuth": []}], "tags": ["labs"], "summary": "Create a lab"}
        },
        "/labs/{id}": {"get": {"tags": ["labs"], "summary": "Get a lab"}},
        "/labs/{id}/members": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["labs"], "summary": "Join a lab"},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["labs"], "summary": "Leave a lab"}
        },
        "/posts": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Create a post"},
            "get": {"tags": ["posts"], "summary": "List posts"}
        },
        "/posts/{id}": {"get": {"tags": ["posts"], "summary": "Get a post"}},
        "/posts/{id}/like": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Like a post"},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Unlike a post"}
        },
        "/feed": {"get": {"security": [{"BearerAuth": []}], "tags": ["feed"], "summary": "Get my feed"}},
        "/follow/{type}/{id}": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["social"], "summary": "Follow a user or lab"},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["social"], "summary": "Unfollow a user or lab"}
        },
        "/supervision": {"post": {"security": [{"BearerAuth": []}], "tags": ["supervision"], "summary": "Request supervision"}},
        "/approvals": {"get": {"security": [{"BearerAuth": []}], "tags": ["supervision"], "summary": "List supervision requests"}},
        "/approvals/{studentId}/{action}": {"post": {"security": [{"BearerAuth": []}], "tags": ["supervision"], "summary": "Resolve a supervision request"}},
        "/feed/live": {"get": {"security": [{"BearerAuth": []}], "description": "Upgrades the connection to a WebSocket that receives every new post written by users and labs the caller follows", "tags": ["feed"], "summary": "Subscribe to the live feed"}}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT token for authorization",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "LabSphere API",
	Description:      "API for the LabSphere research-lab social network",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
