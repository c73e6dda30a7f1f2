package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	var gotID string

	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/replicache/push", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	require.NotEmpty(t, gotID, "request id should be generated")

	// Сгенерированный id — валидный UUID
	_, err := uuid.Parse(gotID)
	assert.NoError(t, err)

	// Id возвращается клиенту в заголовке
	assert.Equal(t, gotID, w.Header().Get("X-Request-Id"))
}

func TestRequestIDMiddleware_KeepsClientID(t *testing.T) {
	var gotID string

	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/replicache/pull", nil)
	req.Header.Set("X-Request-Id", "client-supplied-id")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, "client-supplied-id", gotID)
	assert.Equal(t, "client-supplied-id", w.Header().Get("X-Request-Id"))
}

func TestGetRequestID_MissingMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)

	assert.Empty(t, GetRequestID(req.Context()))
}
