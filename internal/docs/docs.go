// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o internal/docs
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
        "/documents": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "List documents", "responses": {"200": {"description": "Documents"}}},
            "post": {"security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "tags": ["documents"], "summary": "Upload a document", "responses": {"201": {"description": "Document created"}}}
        },
        "/documents/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Get document by ID", "responses": {"200": {"description": "Document details"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Rename a document", "responses": {"200": {"description": "Document renamed"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Delete a document", "responses": {"200": {"description": "Document deleted"}}}
        },
        "/documents/{id}/download": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Get a download link", "responses": {"200": {"description": "Download link"}}}
        },
        "/documents/{id}/versions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "List document versions", "responses": {"200": {"description": "Versions"}}},
            "post": {"security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "tags": ["documents"], "summary": "Upload a new version", "responses": {"201": {"description": "Version added"}}}
        },
        "/documents/{id}/lock": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Lock a document for editing", "responses": {"200": {"description": "Document locked"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Release a document lock", "responses": {"200": {"description": "Document unlocked"}}}
        },
        "/documents/{id}/archive": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Archive a document", "responses": {"200": {"description": "Document archived"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Restore an archived document", "responses": {"200": {"description": "Document restored"}}}
        },
        "/documents/{id}/metadata": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "List custom metadata", "responses": {"200": {"description": "Metadata"}}}
        },
        "/documents/{id}/metadata/{key}": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Set a custom metadata value", "responses": {"200": {"description": "Metadata saved"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Remove a custom metadata value", "responses": {"200": {"description": "Metadata removed"}}}
        },
        "/documents/{id}/access-logs": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "List document access log", "responses": {"200": {"description": "Access log"}}}
        },
        "/documents/{id}/audits": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["audits"], "summary": "Audit history of a document", "responses": {"200": {"description": "Audit rows"}}}
        },
        "/audits": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["audits"], "summary": "Search the audit trail", "responses": {"200": {"description": "Audit rows"}}}
        },
        "/audits/export": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["text/csv", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "tags": ["audits"], "summary": "Export the audit trail", "responses": {"200": {"description": "Export file"}}}
        },
        "/groups": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["security"], "summary": "List security groups", "responses": {"200": {"description": "Groups"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["security"], "summary": "Create a security group", "responses": {"201": {"description": "Group created"}}}
        },
        "/groups/{id}": {
            "delete": {"security": [{"BearerAuth": []}], "tags": ["security"], "summary": "Delete a security group", "responses": {"200": {"description": "Group deleted"}}}
        },
        "/business-areas": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["security"], "summary": "List business areas", "responses": {"200": {"description": "Business areas"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["security"], "summary": "Create a business area", "responses": {"201": {"description": "Business area created"}}}
        },
        "/business-areas/{id}": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["security"], "summary": "Update a business area", "responses": {"200": {"description": "Business area updated"}}}
        },
        "/business-areas/{id}/access": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["security"], "summary": "Check the caller's access to a business area", "responses": {"200": {"description": "Access decision"}}}
        },
        "/access-controls": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["security"], "summary": "List access-control entries", "responses": {"200": {"description": "Access-control entries"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["security"], "summary": "Grant a group access to a business area", "responses": {"200": {"description": "Access granted"}}}
        },
        "/access-controls/{id}": {
            "delete": {"security": [{"BearerAuth": []}], "tags": ["security"], "summary": "Revoke an access-control entry", "responses": {"200": {"description": "Access revoked"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the access token.",
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
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "docstore API",
	Description:      "Document metadata store with a transactional audit trail.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
