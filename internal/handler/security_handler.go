package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docstore/internal/domain"
	"docstore/internal/service"
)

// SecurityHandler handles group, business area and access-control endpoints.
type SecurityHandler struct {
	securityService service.SecurityService
}

// NewSecurityHandler creates a new SecurityHandler.
func NewSecurityHandler(securityService service.SecurityService) *SecurityHandler {
	return &SecurityHandler{securityService: securityService}
}

// ListGroups handles GET /api/v1/groups
// @Summary List security groups
// @Tags security
// @Produce json
// @Success 200 {object} Response{data=[]domain.Group} "Groups"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Admin only"
// @Security BearerAuth
// @Router /groups [get]
func (h *SecurityHandler) ListGroups(c *gin.Context) {
	groups, err := h.securityService.ListGroups(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, groups)
}

// CreateGroup handles POST /api/v1/groups
// @Summary Create a security group
// @Tags security
// @Accept json
// @Produce json
// @Param request body CreateGroupRequest true "Group"
// @Success 201 {object} Response{data=domain.Group} "Group created"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 409 {object} ErrorResponseBody "Group already exists"
// @Security BearerAuth
// @Router /groups [post]
func (h *SecurityHandler) CreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "name is required")
		return
	}

	group, warning, err := h.securityService.CreateGroup(c.Request.Context(), req.Name)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondSaved(c, http.StatusCreated, group, warning)
}

// DeleteGroup handles DELETE /api/v1/groups/:id
// @Summary Delete a security group
// @Description Deletes the group together with its access-control entries.
// @Tags security
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} Response{data=MessageResponse} "Group deleted"
// @Failure 404 {object} ErrorResponseBody "Group not found"
// @Security BearerAuth
// @Router /groups/{id} [delete]
func (h *SecurityHandler) DeleteGroup(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	warning, err := h.securityService.DeleteGroup(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondSaved(c, http.StatusOK, MessageResponse{Message: "group deleted"}, warning)
}

// ListBusinessAreas handles GET /api/v1/business-areas
// @Summary List business areas
// @Tags security
// @Produce json
// @Success 200 {object} Response{data=[]domain.BusinessArea} "Business areas"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /business-areas [get]
func (h *SecurityHandler) ListBusinessAreas(c *gin.Context) {
	areas, err := h.securityService.ListBusinessAreas(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, areas)
}

// CreateBusinessArea handles POST /api/v1/business-areas
// @Summary Create a business area
// @Tags security
// @Accept json
// @Produce json
// @Param request body BusinessAreaRequest true "Business area"
// @Success 201 {object} Response{data=domain.BusinessArea} "Business area created"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 409 {object} ErrorResponseBody "Business area already exists"
// @Security BearerAuth
// @Router /business-areas [post]
func (h *SecurityHandler) CreateBusinessArea(c *gin.Context) {
	var req BusinessAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "name is required")
		return
	}

	area, warning, err := h.securityService.CreateBusinessArea(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondSaved(c, http.StatusCreated, area, warning)
}

// UpdateBusinessArea handles PUT /api/v1/business-areas/:id
// @Summary Update a business area
// @Tags security
// @Accept json
// @Produce json
// @Param id path int true "Business area ID"
// @Param request body BusinessAreaRequest true "Business area"
// @Success 200 {object} Response{data=domain.BusinessArea} "Business area updated"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 404 {object} ErrorResponseBody "Business area not found"
// @Security BearerAuth
// @Router /business-areas/{id} [put]
func (h *SecurityHandler) UpdateBusinessArea(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req BusinessAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "name is required")
		return
	}

	area, warning, err := h.securityService.UpdateBusinessArea(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondSaved(c, http.StatusOK, area, warning)
}

// ListAccessControls handles GET /api/v1/access-controls
// @Summary List access-control entries
// @Tags security
// @Produce json
// @Param business_area_id query int false "Filter by business area"
// @Success 200 {object} Response{data=[]domain.AccessControl} "Access-control entries"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Security BearerAuth
// @Router /access-controls [get]
func (h *SecurityHandler) ListAccessControls(c *gin.Context) {
	var areaID *int64
	if raw := c.Query("business_area_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid business_area_id")
			return
		}
		areaID = &id
	}

	acls, err := h.securityService.ListAccessControls(c.Request.Context(), areaID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, acls)
}

// GrantAccess handles PUT /api/v1/access-controls
// @Summary Grant a group access to a business area
// @Description Creates the entry or replaces the permissions of an existing one.
// @Tags security
// @Accept json
// @Produce json
// @Param request body GrantAccessRequest true "Grant"
// @Success 200 {object} Response{data=domain.AccessControl} "Access granted"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 404 {object} ErrorResponseBody "Group or business area not found"
// @Security BearerAuth
// @Router /access-controls [put]
func (h *SecurityHandler) GrantAccess(c *gin.Context) {
	var req GrantAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "group_id and business_area_id are required")
		return
	}

	acl, warning, err := h.securityService.GrantAccess(c.Request.Context(), &service.GrantAccessInput{
		GroupID:        req.GroupID,
		BusinessAreaID: req.BusinessAreaID,
		CanRead:        req.CanRead,
		CanWrite:       req.CanWrite,
		CanDelete:      req.CanDelete,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondSaved(c, http.StatusOK, acl, warning)
}

// RevokeAccess handles DELETE /api/v1/access-controls/:id
// @Summary Revoke an access-control entry
// @Tags security
// @Produce json
// @Param id path int true "Access-control entry ID"
// @Success 200 {object} Response{data=MessageResponse} "Access revoked"
// @Failure 404 {object} ErrorResponseBody "Entry not found"
// @Security BearerAuth
// @Router /access-controls/{id} [delete]
func (h *SecurityHandler) RevokeAccess(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	warning, err := h.securityService.RevokeAccess(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondSaved(c, http.StatusOK, MessageResponse{Message: "access revoked"}, warning)
}

// CheckAccess handles GET /api/v1/business-areas/:id/access
// @Summary Check the caller's access to a business area
// @Tags security
// @Produce json
// @Param id path int true "Business area ID"
// @Param permission query string false "read, write or delete" default(read)
// @Success 200 {object} Response{data=AccessCheckResponse} "Access decision"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Security BearerAuth
// @Router /business-areas/{id}/access [get]
func (h *SecurityHandler) CheckAccess(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	perm := domain.Permission(c.DefaultQuery("permission", string(domain.PermissionRead)))
	switch perm {
	case domain.PermissionRead, domain.PermissionWrite, domain.PermissionDelete:
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "permission must be read, write or delete")
		return
	}

	allowed := actor.IsAdmin()
	if !allowed {
		var err error
		allowed, err = h.securityService.CanAccess(c.Request.Context(), actor.Groups, id, perm)
		if err != nil {
			HandleError(c, err)
			return
		}
	}
	RespondOK(c, AccessCheckResponse{BusinessAreaID: id, Permission: string(perm), Allowed: allowed})
}
