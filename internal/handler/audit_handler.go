package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docstore/internal/domain"
	"docstore/internal/export"
	"docstore/internal/port"
	"docstore/internal/service"
)

var exportContentTypes = map[service.ExportFormat]string{
	service.ExportCSV:  "text/csv; charset=utf-8",
	service.ExportXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// AuditHandler serves the audit trail.
type AuditHandler struct {
	auditService service.AuditService
	now          func() time.Time
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService, now: time.Now}
}

// parseAuditFilter reads the audit query parameters. Returns false if one is
// malformed (error response already written).
func parseAuditFilter(c *gin.Context) (port.AuditFilter, bool) {
	offset, limit := parsePagination(c)
	filter := port.AuditFilter{
		Kind:      c.Query("kind"),
		Operation: domain.Operation(c.Query("operation")),
		KeyName:   c.Query("key_name"),
		KeyValue:  c.Query("key_value"),
		Offset:    offset,
		Limit:     limit,
	}
	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", name+" must be an RFC 3339 timestamp")
			return port.AuditFilter{}, false
		}
		*dst = &t
	}
	return filter, true
}

// List handles GET /api/v1/audits
// @Summary Search the audit trail
// @Description Rows are ordered by timestamp. key_name and key_value must be given together.
// @Tags audits
// @Produce json
// @Param kind query string false "Entity kind, e.g. documents"
// @Param operation query string false "Insert, Update or Delete"
// @Param key_name query string false "Key property name, e.g. Id"
// @Param key_value query string false "Key property value"
// @Param from query string false "Lower timestamp bound (RFC 3339)"
// @Param to query string false "Upper timestamp bound (RFC 3339)"
// @Param offset query int false "Pagination offset" default(0)
// @Param limit query int false "Pagination limit" default(20)
// @Success 200 {object} Response{data=[]domain.Audit,meta=PagMeta} "Audit rows"
// @Failure 400 {object} ErrorResponseBody "Invalid filter"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Admin or auditor only"
// @Security BearerAuth
// @Router /audits [get]
func (h *AuditHandler) List(c *gin.Context) {
	filter, ok := parseAuditFilter(c)
	if !ok {
		return
	}

	audits, total, err := h.auditService.List(c.Request.Context(), filter)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, audits, PagMeta{Total: total, Offset: filter.Offset, Limit: filter.Limit})
}

// ListForDocument handles GET /api/v1/documents/:id/audits
// @Summary Audit history of a document
// @Description Includes rows for the document's versions and custom metadata.
// @Tags audits
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} Response{data=[]domain.Audit} "Audit rows"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Admin or auditor only"
// @Security BearerAuth
// @Router /documents/{id}/audits [get]
func (h *AuditHandler) ListForDocument(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	audits, err := h.auditService.ListForDocument(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, audits)
}

// Export handles GET /api/v1/audits/export
// @Summary Export the audit trail
// @Description Exports every row matching the filter as CSV or XLSX, up to 50000 rows.
// @Tags audits
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv or xlsx" default(csv)
// @Param kind query string false "Entity kind"
// @Param operation query string false "Insert, Update or Delete"
// @Param key_name query string false "Key property name"
// @Param key_value query string false "Key property value"
// @Param from query string false "Lower timestamp bound (RFC 3339)"
// @Param to query string false "Upper timestamp bound (RFC 3339)"
// @Success 200 {file} file "Export file"
// @Failure 400 {object} ErrorResponseBody "Invalid filter or format"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Admin or auditor only"
// @Security BearerAuth
// @Router /audits/export [get]
func (h *AuditHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportCSV)))
	contentType, known := exportContentTypes[format]
	if !known {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "format must be csv or xlsx")
		return
	}
	filter, ok := parseAuditFilter(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.auditService.Export(c.Request.Context(), filter, format, &buf); err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename("audits", string(format), h.now())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
