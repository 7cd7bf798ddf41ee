package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstore/internal/domain"
	"docstore/internal/handler"
	"docstore/internal/middleware"
	"docstore/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var alice = service.Actor{User: "alice", Role: domain.RoleUser, Groups: []string{"finance-editors"}}

func setAuthContext(c *gin.Context, actor service.Actor) {
	c.Set(middleware.ContextKeyUser, actor.User)
	c.Set(middleware.ContextKeyRole, string(actor.Role))
	c.Set(middleware.ContextKeyGroups, actor.Groups)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func multipartBody(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrDocumentNotFound, http.StatusNotFound, "DOCUMENT_NOT_FOUND"},
		{fmt.Errorf("group 4: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("%w: name is required", domain.ErrInvalidInput), http.StatusBadRequest, "INVALID_REQUEST"},
		{domain.ErrConflict, http.StatusConflict, "CONFLICT"},
		{domain.ErrDocumentLocked, http.StatusLocked, "DOCUMENT_LOCKED"},
		{domain.ErrNotLockOwner, http.StatusConflict, "NOT_LOCK_OWNER"},
		{domain.ErrDocumentArchived, http.StatusConflict, "DOCUMENT_ARCHIVED"},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{fmt.Errorf("%w: timeout", domain.ErrUploadFailed), http.StatusBadGateway, "UPLOAD_FAILED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code, _ := handler.MapDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestMapDomainError_InvalidInputKeepsDetail(t *testing.T) {
	_, _, msg := handler.MapDomainError(fmt.Errorf("%w: business_area_id is required", domain.ErrInvalidInput))
	assert.Equal(t, "invalid input: business_area_id is required", msg)
}

func TestRespondSaved_Warning(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	handler.RespondSaved(c, http.StatusOK, gin.H{"id": 1}, &service.AuditWarning{Err: errors.New("audit insert failed")})

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Warning, "audit trail is incomplete")
	assert.NotContains(t, w.Body.String(), "audit insert failed")
}

func TestRespondSaved_NoWarning(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	handler.RespondSaved(c, http.StatusCreated, gin.H{"id": 1}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "warning")
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := handler.PingFunc(func(_ context.Context) error { return nil })
	down := handler.PingFunc(func(_ context.Context) error { return errors.New("refused") })

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)
	handler.NewHealthHandler(map[string]handler.Pinger{"database": ok, "storage": ok}).Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)
	handler.NewHealthHandler(map[string]handler.Pinger{"database": ok, "storage": down}).Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"storage":"not reachable"`)
	assert.NotContains(t, w.Body.String(), "database")
}
