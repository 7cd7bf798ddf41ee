package handler

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// --- Request Types ---

// RenameDocumentRequest represents the rename document request body.
type RenameDocumentRequest struct {
	Name string `json:"name" binding:"required" example:"Supplier contract 2025"`
}

// SetMetadataRequest represents the set metadata request body.
type SetMetadataRequest struct {
	Value string `json:"value" example:"ACME-4711"`
}

// CreateGroupRequest represents the create group request body.
type CreateGroupRequest struct {
	Name string `json:"name" binding:"required" example:"finance-editors"`
}

// BusinessAreaRequest represents the create or update business area request body.
type BusinessAreaRequest struct {
	Name        string `json:"name" binding:"required" example:"Finance"`
	Description string `json:"description" example:"Invoices, contracts and statements"`
}

// GrantAccessRequest represents the grant access request body.
type GrantAccessRequest struct {
	GroupID        int64 `json:"group_id" binding:"required" example:"3"`
	BusinessAreaID int64 `json:"business_area_id" binding:"required" example:"1"`
	CanRead        bool  `json:"can_read" example:"true"`
	CanWrite       bool  `json:"can_write" example:"true"`
	CanDelete      bool  `json:"can_delete" example:"false"`
}

// --- Response Types ---

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message" example:"operation completed successfully"`
}

// AccessCheckResponse reports whether the caller holds a permission.
type AccessCheckResponse struct {
	BusinessAreaID int64  `json:"business_area_id" example:"1"`
	Permission     string `json:"permission" example:"write"`
	Allowed        bool   `json:"allowed" example:"true"`
}

// --- Generic Response Wrappers ---

// Response wraps a successful response with data.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
	Warning string      `json:"warning,omitempty" example:"change saved but its audit trail is incomplete; operators have been notified"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}
