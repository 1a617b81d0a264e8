package category

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/category/entity"
)

func newTestMux(t *testing.T) (*http.ServeMux, *Service) {
	t.Helper()
	svc, _, _ := newTestService()
	h := NewHandler(svc, zap.NewNop().Sugar())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /categories", h.List)
	mux.HandleFunc("GET /categories/{id}", h.Get)
	mux.HandleFunc("POST /categories", h.Create)
	mux.HandleFunc("PUT /categories/{id}", h.Update)
	mux.HandleFunc("PATCH /categories/{id}", h.Update)
	mux.HandleFunc("DELETE /categories/{id}", h.Delete)
	return mux, svc
}

func serve(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHandlerCRUD(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := serve(mux, http.MethodPost, "/categories", `{"name":"Drama"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created entity.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Drama", created.Name)
	assert.Equal(t, "/categories/1", rec.Header().Get("Location"))

	rec = serve(mux, http.MethodPost, "/categories", `{"name":"drama"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(mux, http.MethodGet, "/categories/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = serve(mux, http.MethodGet, "/categories", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))

	rec = serve(mux, http.MethodPut, "/categories/1", `{"id":"2","name":"Thriller"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, http.MethodPatch, "/categories/1", `{"name":"Thriller"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(mux, http.MethodDelete, "/categories/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(mux, http.MethodGet, "/categories/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerEncodesIDsAsStrings(t *testing.T) {
	ids := &seqIDs{}
	ids.n.Store(2111829173017251846)
	svc := NewService(newMemRepo(), ids, &mapCache{data: map[string][]*entity.Category{}}, zap.NewNop().Sugar())
	h := NewHandler(svc, zap.NewNop().Sugar())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /categories/{id}", h.Get)
	mux.HandleFunc("POST /categories", h.Create)
	mux.HandleFunc("PUT /categories/{id}", h.Update)

	rec := serve(mux, http.MethodPost, "/categories", `{"name":"Drama"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2111829173017251847", body["id"])

	id := body["id"].(string)
	assert.Equal(t, http.StatusOK, serve(mux, http.MethodGet, "/categories/"+id, "").Code)
	rec = serve(mux, http.MethodPut, "/categories/"+id, `{"id":"`+id+`","name":"Thriller"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandlerBadInput(t *testing.T) {
	mux, _ := newTestMux(t)

	assert.Equal(t, http.StatusBadRequest, serve(mux, http.MethodGet, "/categories/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(mux, http.MethodGet, "/categories/0", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(mux, http.MethodPost, "/categories", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(mux, http.MethodPost, "/categories", `{"name":""}`).Code)
}

func TestHandlerInternalError(t *testing.T) {
	svc, r, _ := newTestService()
	r.failAll = context.DeadlineExceeded
	h := NewHandler(svc, zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/categories", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "deadline")
}
