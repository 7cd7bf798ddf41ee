package handler

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docstore/internal/domain"
	"docstore/internal/port"
	"docstore/internal/service"
)

// DocumentHandler handles document endpoints.
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// Create handles POST /api/v1/documents
// @Summary Upload a document
// @Description Upload a new document into a business area. The first version is stored in blob storage.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document content"
// @Param business_area_id formData int true "Business area ID"
// @Param name formData string false "Document name (defaults to the uploaded file name without extension)"
// @Success 201 {object} Response{data=domain.Document} "Document created"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "No write access to the business area"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 502 {object} ErrorResponseBody "Upload failed"
// @Security BearerAuth
// @Router /documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	areaID, err := strconv.ParseInt(c.PostForm("business_area_id"), 10, 64)
	if err != nil || areaID <= 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "business_area_id is required")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	ext := filepath.Ext(header.Filename)
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(header.Filename), ext)
	}

	doc, warning, err := h.documentService.Create(c.Request.Context(), &service.CreateDocumentInput{
		Actor:          actor,
		Name:           name,
		Extension:      ext,
		BusinessAreaID: areaID,
		ContentType:    header.Header.Get("Content-Type"),
		Size:           header.Size,
		Body:           file,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondSaved(c, http.StatusCreated, doc, warning)
}

// List handles GET /api/v1/documents
// @Summary List documents
// @Description List documents of a business area. Only admins may omit business_area_id.
// @Tags documents
// @Produce json
// @Param business_area_id query int false "Business area ID"
// @Param include_archived query bool false "Include archived documents"
// @Param offset query int false "Pagination offset" default(0)
// @Param limit query int false "Pagination limit" default(20)
// @Success 200 {object} Response{data=[]domain.Document,meta=PagMeta} "Documents"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "No read access to the business area"
// @Security BearerAuth
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	offset, limit := parsePagination(c)
	filter := port.DocumentFilter{
		IncludeArchived: c.Query("include_archived") == "true",
		Offset:          offset,
		Limit:           limit,
	}
	if raw := c.Query("business_area_id"); raw != "" {
		areaID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid business_area_id")
			return
		}
		filter.BusinessAreaID = &areaID
	}

	docs, total, err := h.documentService.List(c.Request.Context(), actor, filter)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, docs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/documents/:id
// @Summary Get document by ID
// @Description Get document details. The view is recorded in the access log.
// @Tags documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} Response{data=domain.Document} "Document details"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "No read access"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Security BearerAuth
// @Router /documents/{id} [get]
func (h *DocumentHandler) GetByID(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.documentService.Get(c.Request.Context(), actor, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, doc)
}

// Download handles GET /api/v1/documents/:id/download
// @Summary Get a download link
// @Description Returns a presigned URL for the current or a specific version.
// @Tags documents
// @Produce json
// @Param id path int true "Document ID"
// @Param version query int false "Version number (defaults to the current version)"
// @Success 200 {object} Response{data=service.DownloadOutput} "Download link"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "No read access"
// @Failure 404 {object} ErrorResponseBody "Document or version not found"
// @Security BearerAuth
// @Router /documents/{id}/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	version, err := strconv.Atoi(c.DefaultQuery("version", "0"))
	if err != nil || version < 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid version")
		return
	}

	out, err := h.documentService.Download(c.Request.Context(), actor, id, version)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, out)
}

// Rename handles PATCH /api/v1/documents/:id
// @Summary Rename a document
// @Tags documents
// @Accept json
// @Produce json
// @Param id path int true "Document ID"
// @Param request body RenameDocumentRequest true "New name"
// @Success 200 {object} Response{data=domain.Document} "Document renamed"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "No write access"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Failure 409 {object} ErrorResponseBody "Document archived"
// @Failure 423 {object} ErrorResponseBody "Document locked by another user"
// @Security BearerAuth
// @Router /documents/{id} [patch]
func (h *DocumentHandler) Rename(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req RenameDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "name is required")
		return
	}

	doc, warning, err := h.documentService.Rename(c.Request.Context(), actor, id, req.Name)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondSaved(c, http.StatusOK, doc, warning)
}

// AddVersion handles POST /api/v1/documents/:id/versions
// @Summary Upload a new version
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Document ID"
// @Param file formData file true "New content"
// @Success 201 {object} Response{data=domain.Document} "Version added"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "No write access"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Failure 409 {object} ErrorResponseBody "Document archived"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 423 {object} ErrorResponseBody "Document locked by another user"
// @Security BearerAuth
// @Router /documents/{id}/versions [post]
func (h *DocumentHandler) AddVersion(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	doc, warning, err := h.documentService.AddVersion(c.Request.Context(), &service.AddVersionInput{
		Actor:       actor,
		DocumentID:  id,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondSaved(c, http.StatusCreated, doc, warning)
}

// ListVersions handles GET /api/v1/documents/:id/versions
// @Summary List document versions
// @Tags documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} Response{data=[]domain.DocumentVersion} "Versions"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "No read access"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Security BearerAuth
// @Router /documents/{id}/versions [get]
func (h *DocumentHandler) ListVersions(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	versions, err := h.documentService.ListVersions(c.Request.Context(), actor, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, versions)
}

// Lock handles POST /api/v1/documents/:id/lock
// @Summary Lock a document for editing
// @Tags documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} Response{data=domain.Document} "Document locked"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "No write access"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Failure 423 {object} ErrorResponseBody "Document locked by another user"
// @Security BearerAuth
// @Router /documents/{id}/lock [post]
func (h *DocumentHandler) Lock(c *gin.Context) {
	h.transition(c, h.documentService.Lock)
}

// Unlock handles DELETE /api/v1/documents/:id/lock
// @Summary Release a document lock
// @Tags documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} Response{data=domain.Document} "Document unlocked"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Failure 409 {object} ErrorResponseBody "Lock held by another user"
// @Security BearerAuth
// @Router /documents/{id}/lock [delete]
func (h *DocumentHandler) Unlock(c *gin.Context) {
	h.transition(c, h.documentService.Unlock)
}

// Archive handles POST /api/v1/documents/:id/archive
// @Summary Archive a document
// @Tags documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} Response{data=domain.Document} "Document archived"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Security BearerAuth
// @Router /documents/{id}/archive [post]
func (h *DocumentHandler) Archive(c *gin.Context) {
	h.transition(c, h.documentService.Archive)
}

// Unarchive handles DELETE /api/v1/documents/:id/archive
// @Summary Restore an archived document
// @Tags documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} Response{data=domain.Document} "Document restored"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Security BearerAuth
// @Router /documents/{id}/archive [delete]
func (h *DocumentHandler) Unarchive(c *gin.Context) {
	h.transition(c, h.documentService.Unarchive)
}

type transitionFunc func(ctx context.Context, actor service.Actor, id int64) (*domain.Document, *service.AuditWarning, error)

func (h *DocumentHandler) transition(c *gin.Context, fn transitionFunc) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	doc, warning, err := fn(c.Request.Context(), actor, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondSaved(c, http.StatusOK, doc, warning)
}

// Delete handles DELETE /api/v1/documents/:id
// @Summary Delete a document
// @Description Delete a document with its versions, metadata and stored content.
// @Tags documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} Response{data=MessageResponse} "Document deleted"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "No delete access"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Failure 423 {object} ErrorResponseBody "Document locked by another user"
// @Security BearerAuth
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	warning, err := h.documentService.Delete(c.Request.Context(), actor, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondSaved(c, http.StatusOK, MessageResponse{Message: "document deleted"}, warning)
}

// ListMetadata handles GET /api/v1/documents/:id/metadata
// @Summary List custom metadata
// @Tags documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} Response{data=[]domain.CustomMetadata} "Metadata"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Security BearerAuth
// @Router /documents/{id}/metadata [get]
func (h *DocumentHandler) ListMetadata(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	items, err := h.documentService.ListMetadata(c.Request.Context(), actor, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, items)
}

// SetMetadata handles PUT /api/v1/documents/:id/metadata/:key
// @Summary Set a custom metadata value
// @Tags documents
// @Accept json
// @Produce json
// @Param id path int true "Document ID"
// @Param key path string true "Metadata key"
// @Param request body SetMetadataRequest true "Value"
// @Success 200 {object} Response{data=domain.CustomMetadata} "Metadata saved"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Failure 423 {object} ErrorResponseBody "Document locked by another user"
// @Security BearerAuth
// @Router /documents/{id}/metadata/{key} [put]
func (h *DocumentHandler) SetMetadata(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req SetMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	item, warning, err := h.documentService.SetMetadata(c.Request.Context(), actor, id, c.Param("key"), req.Value)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondSaved(c, http.StatusOK, item, warning)
}

// RemoveMetadata handles DELETE /api/v1/documents/:id/metadata/:key
// @Summary Remove a custom metadata value
// @Tags documents
// @Produce json
// @Param id path int true "Document ID"
// @Param key path string true "Metadata key"
// @Success 200 {object} Response{data=MessageResponse} "Metadata removed"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Document or key not found"
// @Security BearerAuth
// @Router /documents/{id}/metadata/{key} [delete]
func (h *DocumentHandler) RemoveMetadata(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	warning, err := h.documentService.RemoveMetadata(c.Request.Context(), actor, id, c.Param("key"))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondSaved(c, http.StatusOK, MessageResponse{Message: "metadata removed"}, warning)
}

// ListAccessLogs handles GET /api/v1/documents/:id/access-logs
// @Summary List document access log
// @Tags documents
// @Produce json
// @Param id path int true "Document ID"
// @Param offset query int false "Pagination offset" default(0)
// @Param limit query int false "Pagination limit" default(20)
// @Success 200 {object} Response{data=[]domain.AccessLog,meta=PagMeta} "Access log"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Security BearerAuth
// @Router /documents/{id}/access-logs [get]
func (h *DocumentHandler) ListAccessLogs(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	offset, limit := parsePagination(c)
	logs, total, err := h.documentService.ListAccessLogs(c.Request.Context(), actor, id, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, logs, PagMeta{Total: total, Offset: offset, Limit: limit})
}
