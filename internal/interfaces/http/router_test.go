package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photopick/internal/application/ledger"
	"photopick/internal/application/upload"
	"photopick/internal/domain/quota"
	"photopick/internal/infrastructure/persistence/testutil"
	"photopick/internal/infrastructure/repository"
	"photopick/internal/infrastructure/storage"
	"photopick/internal/interfaces/http/handlers"
	"photopick/internal/interfaces/http/routes"
	"photopick/internal/shared/biztime"
	"photopick/internal/shared/db"
	"photopick/internal/shared/logger"
)

type freePlans struct{}

func (freePlans) CurrentPlan(context.Context, string) (quota.Plan, error) {
	return quota.PlanFree, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Type string `json:"type"`
	} `json:"error"`
}

func newTestRouter(t *testing.T, checks map[string]HealthCheck) *Router {
	t.Helper()
	gdb := testutil.NewSQLiteDB(t)
	log := logger.NewNopLogger()
	clock := biztime.FixedClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))

	uploads := repository.NewUploadRepository(gdb, log)
	ledgerSvc := ledger.NewService(
		repository.NewQuotaLedgerRepository(gdb, time.Second, log),
		uploads,
		db.NewTransactionManager(gdb),
		freePlans{},
		ledger.Config{LockWait: 5 * time.Second, Retry: db.RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}},
		log,
		ledger.WithClock(clock),
	)
	uploadSvc := upload.NewService(ledgerSvc, uploads, repository.NewOrphanedObjectRepository(gdb, log),
		storage.NewMemoryObjectStore(), upload.Config{MaxUploadBytes: 1 << 20}, log)

	return NewRouter(RouterConfig{
		Mode: "test",
		Quota: &routes.QuotaRouteConfig{
			LedgerHandler: handlers.NewLedgerHandler(ledgerSvc, clock, log),
			UploadHandler: handlers.NewUploadHandler(uploadSvc, 1<<20, log),
		},
		Checks: checks,
		Logger: log,
	})
}

func do(t *testing.T, r *Router, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func uploadRequest(t *testing.T, ownerID string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "beach.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("\xff\xd8\xff\xe0 jpeg"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/owners/"+ownerID+"/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func quotaUsed(t *testing.T, r *Router, ownerID string) int {
	t.Helper()
	w, env := do(t, r, httptest.NewRequest(http.MethodGet, "/api/owners/"+ownerID+"/quota", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var status quota.LedgerStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	return status.UsedCount
}

func TestRouter_UploadLifecycle(t *testing.T) {
	r := newTestRouter(t, nil)

	w, _ := do(t, r, httptest.NewRequest(http.MethodPost, "/api/owners/owner-1/ledger", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := do(t, r, uploadRequest(t, "owner-1"))
	require.Equal(t, http.StatusCreated, w.Code)
	var created handlers.UploadResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "image/jpeg", created.ContentType)

	_, _ = do(t, r, uploadRequest(t, "owner-1"))
	assert.Equal(t, 2, quotaUsed(t, r, "owner-1"))

	w, _ = do(t, r, httptest.NewRequest(http.MethodGet, "/api/uploads/"+created.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, httptest.NewRequest(http.MethodDelete, "/api/uploads/"+created.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, quotaUsed(t, r, "owner-1"))

	w, env = do(t, r, httptest.NewRequest(http.MethodDelete, "/api/uploads/"+created.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var deleted handlers.DeleteUploadResponse
	require.NoError(t, json.Unmarshal(env.Data, &deleted))
	assert.False(t, deleted.Deleted)
	assert.Equal(t, 1, quotaUsed(t, r, "owner-1"))

	w, env = do(t, r, httptest.NewRequest(http.MethodGet, "/api/owners/owner-1/ledger/drift", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var drift handlers.DriftResponse
	require.NoError(t, json.Unmarshal(env.Data, &drift))
	assert.True(t, drift.InSync)
}

func TestRouter_UploadWithoutLedger(t *testing.T) {
	r := newTestRouter(t, nil)

	w, env := do(t, r, uploadRequest(t, "ghost"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Type)
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	})
	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	r = newTestRouter(t, map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	w = httptest.NewRecorder()
	r.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
