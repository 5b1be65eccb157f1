package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photopick/internal/application/upload"
	"photopick/internal/domain/quota"
	domain "photopick/internal/domain/upload"
	"photopick/internal/interfaces/http/handlers/testutil"
	"photopick/internal/shared/logger"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type mockUploadService struct {
	createResult *upload.CreateResult
	deleteResult *upload.DeleteResult
	upload       *domain.Upload
	listResult   *upload.ListResult
	err          error

	gotCommand upload.CreateCommand
	gotQuery   upload.ListQuery
	calls      int
}

func (m *mockUploadService) Create(_ context.Context, cmd upload.CreateCommand) (*upload.CreateResult, error) {
	m.calls++
	m.gotCommand = cmd
	return m.createResult, m.err
}

func (m *mockUploadService) Delete(_ context.Context, _ string) (*upload.DeleteResult, error) {
	m.calls++
	return m.deleteResult, m.err
}

func (m *mockUploadService) Get(_ context.Context, _ string) (*domain.Upload, error) {
	m.calls++
	return m.upload, m.err
}

func (m *mockUploadService) ListByOwner(_ context.Context, q upload.ListQuery) (*upload.ListResult, error) {
	m.calls++
	m.gotQuery = q
	return m.listResult, m.err
}

func testUpload(t *testing.T, id string) *domain.Upload {
	t.Helper()
	u, err := domain.NewUpload(id, "owner-1", domain.StorageKey("owner-1", id, "cat.png"),
		int64(len(pngHeader)), "image/png", "cat.png", map[string]any{"album": "pets"}, handlerNow)
	require.NoError(t, err)
	return u
}

func TestUploadHandler_CreateUpload(t *testing.T) {
	svc := &mockUploadService{createResult: &upload.CreateResult{Upload: testUpload(t, "up-1")}}
	handler := NewUploadHandler(svc, 1<<20, logger.NewNopLogger())

	c, w := testutil.NewMultipartContext("/api/owners/owner-1/uploads", "file", "cat.png", pngHeader,
		map[string]string{"metadata": `{"album":"pets"}`})
	testutil.SetURLParam(c, "owner_id", "owner-1")

	handler.CreateUpload(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "owner-1", svc.gotCommand.OwnerID)
	assert.Equal(t, "cat.png", svc.gotCommand.OriginalName)
	assert.Equal(t, "image/png", svc.gotCommand.ContentType)
	assert.Equal(t, pngHeader, svc.gotCommand.Body)
	assert.Equal(t, "pets", svc.gotCommand.Metadata["album"])

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var body UploadResponse
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	assert.Equal(t, "up-1", body.ID)
	assert.Equal(t, "u/owner-1/up-1/cat.png", body.StorageKey)
}

func TestUploadHandler_CreateUpload_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		reason   quota.RejectionReason
		wantCode int
		wantType string
	}{
		{"quota exceeded", quota.ReasonQuotaExceeded, http.StatusForbidden, "quota_exceeded"},
		{"subscription inactive", quota.ReasonSubscriptionInactive, http.StatusPaymentRequired, "subscription_inactive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockUploadService{createResult: &upload.CreateResult{
				Rejection: &quota.Rejection{Reason: tt.reason, Used: 100, Limit: 100},
			}}
			handler := NewUploadHandler(svc, 1<<20, logger.NewNopLogger())

			c, w := testutil.NewMultipartContext("/api/owners/owner-1/uploads", "file", "cat.png", pngHeader, nil)
			testutil.SetURLParam(c, "owner_id", "owner-1")

			handler.CreateUpload(c)

			assert.Equal(t, tt.wantCode, w.Code)
			var resp testutil.APIResponse
			require.NoError(t, testutil.ParseResponse(w, &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantType, resp.Error.Type)
			assert.Equal(t, string(tt.reason), resp.Error.Fields["reason"])
			assert.Equal(t, float64(100), resp.Error.Fields["used"])
			assert.Equal(t, float64(100), resp.Error.Fields["limit"])
		})
	}
}

func TestUploadHandler_CreateUpload_BadRequests(t *testing.T) {
	t.Run("missing file part", func(t *testing.T) {
		svc := &mockUploadService{}
		handler := NewUploadHandler(svc, 1<<20, logger.NewNopLogger())

		c, w := testutil.NewMultipartContext("/api/owners/owner-1/uploads", "", "", nil,
			map[string]string{"metadata": "{}"})
		testutil.SetURLParam(c, "owner_id", "owner-1")

		handler.CreateUpload(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, svc.calls)
	})

	t.Run("metadata is not an object", func(t *testing.T) {
		svc := &mockUploadService{}
		handler := NewUploadHandler(svc, 1<<20, logger.NewNopLogger())

		c, w := testutil.NewMultipartContext("/api/owners/owner-1/uploads", "file", "cat.png", pngHeader,
			map[string]string{"metadata": "[1,2]"})
		testutil.SetURLParam(c, "owner_id", "owner-1")

		handler.CreateUpload(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, svc.calls)
	})

	t.Run("file over the size limit", func(t *testing.T) {
		svc := &mockUploadService{}
		handler := NewUploadHandler(svc, 8, logger.NewNopLogger())

		c, w := testutil.NewMultipartContext("/api/owners/owner-1/uploads", "file", "cat.png", pngHeader, nil)
		testutil.SetURLParam(c, "owner_id", "owner-1")

		handler.CreateUpload(c)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Zero(t, svc.calls)
	})
}

func TestUploadHandler_CreateUpload_ServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"no ledger", quota.ErrLedgerNotFound, http.StatusNotFound},
		{"storage down", domain.ErrStorage, http.StatusServiceUnavailable},
		{"retries exhausted", quota.ErrConflictRetryExhausted, http.StatusConflict},
		{"owner busy", quota.ErrOwnerBusy, http.StatusServiceUnavailable},
		{"busy until retries ran out", fmt.Errorf("%w: %w", quota.ErrConflictRetryExhausted, quota.ErrOwnerBusy), http.StatusServiceUnavailable},
		{"unexpected", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewUploadHandler(&mockUploadService{err: tt.err}, 1<<20, logger.NewNopLogger())

			c, w := testutil.NewMultipartContext("/api/owners/owner-1/uploads", "file", "cat.png", pngHeader, nil)
			testutil.SetURLParam(c, "owner_id", "owner-1")

			handler.CreateUpload(c)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestUploadHandler_ListUploads(t *testing.T) {
	svc := &mockUploadService{listResult: &upload.ListResult{
		Items:    []*domain.Upload{testUpload(t, "up-1"), testUpload(t, "up-2")},
		Total:    12,
		Page:     2,
		PageSize: 2,
	}}
	handler := NewUploadHandler(svc, 0, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/owners/owner-1/uploads", nil)
	testutil.SetURLParam(c, "owner_id", "owner-1")
	testutil.SetQueryParams(c, map[string]string{"page": "2", "page_size": "2"})

	handler.ListUploads(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, upload.ListQuery{OwnerID: "owner-1", Page: 2, PageSize: 2}, svc.gotQuery)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var list struct {
		Items      []UploadResponse `json:"items"`
		Total      int64            `json:"total"`
		TotalPages int              `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Len(t, list.Items, 2)
	assert.Equal(t, int64(12), list.Total)
	assert.Equal(t, 6, list.TotalPages)
}

func TestUploadHandler_GetUpload(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		handler := NewUploadHandler(&mockUploadService{upload: testUpload(t, "up-1")}, 0, logger.NewNopLogger())

		c, w := testutil.NewTestContext(http.MethodGet, "/api/uploads/up-1", nil)
		testutil.SetURLParam(c, "upload_id", "up-1")

		handler.GetUpload(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		handler := NewUploadHandler(&mockUploadService{err: domain.ErrUploadNotFound}, 0, logger.NewNopLogger())

		c, w := testutil.NewTestContext(http.MethodGet, "/api/uploads/nope", nil)
		testutil.SetURLParam(c, "upload_id", "nope")

		handler.GetUpload(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUploadHandler_DeleteUpload(t *testing.T) {
	tests := []struct {
		name        string
		result      *upload.DeleteResult
		wantDeleted bool
	}{
		{"deleted", &upload.DeleteResult{UploadID: "up-1", Deleted: true}, true},
		{"already gone", &upload.DeleteResult{UploadID: "up-1", NotFound: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewUploadHandler(&mockUploadService{deleteResult: tt.result}, 0, logger.NewNopLogger())

			c, w := testutil.NewTestContext(http.MethodDelete, "/api/uploads/up-1", nil)
			testutil.SetURLParam(c, "upload_id", "up-1")

			handler.DeleteUpload(c)

			assert.Equal(t, http.StatusOK, w.Code)
			var resp testutil.APIResponse
			require.NoError(t, testutil.ParseResponse(w, &resp))
			var body DeleteUploadResponse
			require.NoError(t, json.Unmarshal(resp.Data, &body))
			assert.Equal(t, "up-1", body.UploadID)
			assert.Equal(t, tt.wantDeleted, body.Deleted)
		})
	}
}
