// Package docs provides the generated Swagger spec registration.
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
        "/credits": {
            "get": {
                "produces": ["application/json"],
                "tags": ["credits"],
                "summary": "Current credit balance",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["credits"],
                "summary": "Add credits to the balance",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/generate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["generation"],
                "summary": "Generate a single image",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "502": {"description": "Bad Gateway"}}
            }
        },
        "/current-project": {
            "get": {
                "produces": ["application/json"],
                "tags": ["projects"],
                "summary": "Get the current project, if any",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/projects": {
            "get": {
                "produces": ["application/json"],
                "tags": ["projects"],
                "summary": "List projects",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["projects"],
                "summary": "Create a comic project",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "402": {"description": "Payment Required"}}
            }
        },
        "/projects/{project_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["projects"],
                "summary": "Get a project with its panels and characters",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["projects"],
                "summary": "Patch project fields",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["projects"],
                "summary": "Delete a project",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/projects/{project_id}/characters": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["characters"],
                "summary": "Add a character to a project",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/projects/{project_id}/characters/{character_id}": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["characters"],
                "summary": "Patch character fields",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/projects/{project_id}/current": {
            "put": {
                "produces": ["application/json"],
                "tags": ["projects"],
                "summary": "Mark a project as the current editing session",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/projects/{project_id}/export": {
            "post": {
                "produces": ["application/pdf"],
                "tags": ["export"],
                "summary": "Export a project as PDF",
                "responses": {"200": {"description": "OK"}, "402": {"description": "Payment Required"}, "404": {"description": "Not Found"}}
            }
        },
        "/projects/{project_id}/generate": {
            "post": {
                "produces": ["application/json"],
                "tags": ["generation"],
                "summary": "Generate panels for a project",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "502": {"description": "Bad Gateway"}}
            }
        },
        "/projects/{project_id}/panels/order": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["panels"],
                "summary": "Reorder a project's panels",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/projects/{project_id}/panels/{panel_id}": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["panels"],
                "summary": "Patch panel fields",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["panels"],
                "summary": "Delete a panel",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/projects/{project_id}/panels/{panel_id}/regenerate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["generation"],
                "summary": "Regenerate one panel",
                "responses": {"200": {"description": "OK"}, "402": {"description": "Payment Required"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}, "502": {"description": "Bad Gateway"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "ComicForge Backend API",
	Description:      "Backend API for turning story prose into illustrated comic panels via Replicate image generation. Handles projects, panels, characters, a credit ledger and PDF export.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
