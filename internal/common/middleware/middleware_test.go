package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygateway/internal/common/api"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCorrelationIDPropagatesHeader(t *testing.T) {
	var seen string
	h := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Correlation-ID"))
}

func TestCorrelationIDGeneratedWhenMissing(t *testing.T) {
	var seen string
	h := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, seen, 26)
	assert.Equal(t, seen, rec.Header().Get("X-Correlation-ID"))
}

func TestRecovererWritesInternalIssue(t *testing.T) {
	buffer := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buffer, nil))

	router := chi.NewRouter()
	router.Use(Recoverer(logger))
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		panic("panicky handler")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Issues, 1)
	assert.Equal(t, api.ErrCodeInternal, body.Issues[0].Code)

	assert.Contains(t, buffer.String(), "panic recovered")
	assert.Contains(t, buffer.String(), "panicky handler")
}

func TestLoggerRecordsStatus(t *testing.T) {
	buffer := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buffer, nil))

	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	req := httptest.NewRequest(http.MethodPost, "/payments", nil)
	req.Header.Set("Idempotency-Key", "0f8fad5b-d9cb-469f-a165-70867728950e")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", entry["idempotency_key"])
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://shop.example"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/payments", nil)
	req.Header.Set("Origin", "https://shop.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")

	req = httptest.NewRequest(http.MethodGet, "/payments", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiterDeniesAfterBurst(t *testing.T) {
	limit, err := RateLimiter(RateLimitConfig{PerMinute: 1, Burst: 2}, discardLogger())
	require.NoError(t, err)
	h := limit(okHandler)

	serve := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments", nil))
		return rec
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve().Code, "request %d", i)
	}

	rec := serve()
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, api.ErrCodeRateLimited, body.Issues[0].Code)
}

func TestRateLimiterDisabled(t *testing.T) {
	limit, err := RateLimiter(RateLimitConfig{PerMinute: 0}, discardLogger())
	require.NoError(t, err)
	h := limit(okHandler)

	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestInstrumentHandlerTwice(t *testing.T) {
	assert.NotPanics(t, func() {
		InstrumentHandler("payments_test", okHandler)
		InstrumentHandler("payments_test", okHandler)
	})

	rec := httptest.NewRecorder()
	InstrumentHandler("payments_test", okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	Metrics().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `paygateway_api_requests_total{code="200",handler="payments_test",method="get"}`)
}
