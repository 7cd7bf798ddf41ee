package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docstore/internal/domain"
	"docstore/internal/handler"
	"docstore/internal/port"
	"docstore/internal/service"
	"docstore/mocks"
)

func newDocumentHandler() (*handler.DocumentHandler, *mocks.MockDocumentService) {
	mockSvc := new(mocks.MockDocumentService)
	return handler.NewDocumentHandler(mockSvc), mockSvc
}

func TestDocumentHandler_Create_Success(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	var uploaded string
	mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(in *service.CreateDocumentInput) bool {
		return in.Actor.User == "alice" &&
			in.Name == "contract" &&
			in.Extension == ".pdf" &&
			in.BusinessAreaID == 1 &&
			in.Size == 5
	})).Run(func(args mock.Arguments) {
		b, _ := io.ReadAll(args.Get(1).(*service.CreateDocumentInput).Body)
		uploaded = string(b)
	}).Return(&domain.Document{ID: 42, Name: "contract", Extension: "pdf"}, nil, nil)

	body, contentType := multipartBody(t, map[string]string{"business_area_id": "1"}, "contract.pdf", "hello")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/documents", body)
	c.Request.Header.Set("Content-Type", contentType)
	setAuthContext(c, alice)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Warning)
	assert.Equal(t, "hello", uploaded)
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_Create_NameOverride(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(in *service.CreateDocumentInput) bool {
		return in.Name == "Supplier contract" && in.Extension == ".pdf"
	})).Return(&domain.Document{ID: 42}, &service.AuditWarning{Err: errors.New("deferred")}, nil)

	body, contentType := multipartBody(t, map[string]string{"business_area_id": "1", "name": "Supplier contract"}, "scan-0001.pdf", "x")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/documents", body)
	c.Request.Header.Set("Content-Type", contentType)
	setAuthContext(c, alice)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, decodeResponse(t, w).Warning)
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_Create_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		filename string
		code     string
	}{
		{"missing business area", map[string]string{}, "a.pdf", "INVALID_REQUEST"},
		{"non-numeric business area", map[string]string{"business_area_id": "finance"}, "a.pdf", "INVALID_REQUEST"},
		{"missing file", map[string]string{"business_area_id": "1"}, "", "MISSING_FILE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mockSvc := newDocumentHandler()

			body, contentType := multipartBody(t, tt.fields, tt.filename, "x")
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/documents", body)
			c.Request.Header.Set("Content-Type", contentType)
			setAuthContext(c, alice)

			h.Create(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decodeResponse(t, w).Error.Code)
			mockSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestDocumentHandler_Create_Unauthenticated(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/documents", http.NoBody)

	h.Create(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDocumentHandler_List(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	areaID := int64(1)
	filter := port.DocumentFilter{BusinessAreaID: &areaID, IncludeArchived: true, Offset: 10, Limit: 5}
	mockSvc.On("List", mock.Anything, alice, filter).
		Return([]domain.Document{{ID: 1}, {ID: 2}}, 12, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/documents?business_area_id=1&include_archived=true&offset=10&limit=5", http.NoBody)
	setAuthContext(c, alice)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, handler.PagMeta{Total: 12, Offset: 10, Limit: 5}, *resp.Meta)
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_GetByID(t *testing.T) {
	tests := []struct {
		name   string
		param  string
		err    error
		status int
	}{
		{"found", "42", nil, http.StatusOK},
		{"not found", "42", domain.ErrDocumentNotFound, http.StatusNotFound},
		{"forbidden", "42", domain.ErrForbidden, http.StatusForbidden},
		{"invalid id", "abc", nil, http.StatusBadRequest},
		{"zero id", "0", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mockSvc := newDocumentHandler()
			if tt.err != nil {
				mockSvc.On("Get", mock.Anything, alice, int64(42)).Return(nil, tt.err)
			} else {
				mockSvc.On("Get", mock.Anything, alice, int64(42)).Return(&domain.Document{ID: 42}, nil)
			}

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/documents/"+tt.param, http.NoBody)
			c.Params = gin.Params{{Key: "id", Value: tt.param}}
			setAuthContext(c, alice)

			h.GetByID(c)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestDocumentHandler_Download(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	mockSvc.On("Download", mock.Anything, alice, int64(42), 2).
		Return(&service.DownloadOutput{URL: "https://blobs.example/42.v2", FileName: "contract.pdf", Version: 2}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/documents/42/download?version=2", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	setAuthContext(c, alice)

	h.Download(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://blobs.example/42.v2")
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_Rename(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	mockSvc.On("Rename", mock.Anything, alice, int64(42), "Renamed").
		Return(&domain.Document{ID: 42, Name: "Renamed"}, nil, nil)

	body, _ := json.Marshal(map[string]string{"name": "Renamed"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPatch, "/api/v1/documents/42", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	setAuthContext(c, alice)

	h.Rename(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_Rename_MissingName(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPatch, "/api/v1/documents/42", bytes.NewReader([]byte(`{}`)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	setAuthContext(c, alice)

	h.Rename(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Rename", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentHandler_Lock_HeldByOther(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	mockSvc.On("Lock", mock.Anything, alice, int64(42)).Return(nil, nil, domain.ErrDocumentLocked)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/documents/42/lock", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	setAuthContext(c, alice)

	h.Lock(c)

	assert.Equal(t, http.StatusLocked, w.Code)
	assert.Equal(t, "DOCUMENT_LOCKED", decodeResponse(t, w).Error.Code)
}

func TestDocumentHandler_Archive(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	mockSvc.On("Archive", mock.Anything, alice, int64(42)).
		Return(&domain.Document{ID: 42}, &service.AuditWarning{Err: errors.New("deferred")}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/documents/42/archive", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	setAuthContext(c, alice)

	h.Archive(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decodeResponse(t, w).Warning)
}

func TestDocumentHandler_AddVersion(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	mockSvc.On("AddVersion", mock.Anything, mock.MatchedBy(func(in *service.AddVersionInput) bool {
		return in.DocumentID == 42 && in.Actor.User == "alice" && in.Size == 5
	})).Return(&domain.Document{ID: 42, Version: 2}, nil, nil)

	body, contentType := multipartBody(t, nil, "contract.pdf", "world")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/documents/42/versions", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	setAuthContext(c, alice)

	h.AddVersion(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_Delete(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	mockSvc.On("Delete", mock.Anything, alice, int64(42)).Return(nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodDelete, "/api/v1/documents/42", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	setAuthContext(c, alice)

	h.Delete(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "document deleted")
}

func TestDocumentHandler_SetMetadata(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	mockSvc.On("SetMetadata", mock.Anything, alice, int64(42), "ref", "ACME-4711").
		Return(&domain.CustomMetadata{ID: 7, DocumentID: 42, Key: "ref", Value: "ACME-4711"}, nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPut, "/api/v1/documents/42/metadata/ref", bytes.NewReader([]byte(`{"value":"ACME-4711"}`)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "42"}, {Key: "key", Value: "ref"}}
	setAuthContext(c, alice)

	h.SetMetadata(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_ListAccessLogs(t *testing.T) {
	h, mockSvc := newDocumentHandler()

	mockSvc.On("ListAccessLogs", mock.Anything, alice, int64(42), 0, 20).
		Return([]domain.AccessLog{{ID: 1, DocumentID: 42, Action: domain.AccessView, By: "alice"}}, 1, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/documents/42/access-logs", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	setAuthContext(c, alice)

	h.ListAccessLogs(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeResponse(t, w).Meta.Total)
}
