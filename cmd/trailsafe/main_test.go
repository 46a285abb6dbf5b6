package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99souls/ariadne/engine"
	"github.com/99souls/ariadne/engine/models"
)

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg := engine.Defaults()
	cfg.MetricsBackend = "noop"
	e, err := engine.New(cfg)
	require.NoError(t, err)
	return e
}

func TestAnalyzeHandler_RejectsNonPOST(t *testing.T) {
	h := analyzeHandler(testEngine(t))
	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAnalyzeHandler_RejectsMalformedJSON(t *testing.T) {
	h := analyzeHandler(testEngine(t))
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeHandler_RejectsValidationFailureWithBadRequest(t *testing.T) {
	h := analyzeHandler(testEngine(t))
	body, _ := json.Marshal(models.AnalyzeRequest{Lat: 999, Lon: 0})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.NotEmpty(t, payload["error"])
}

func TestAnalyzeHandler_SucceedsWithValidRequest(t *testing.T) {
	h := analyzeHandler(testEngine(t))
	body, _ := json.Marshal(models.AnalyzeRequest{Activity: "hiking", Lat: 40.0, Lon: -74.0})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
}

func TestIsValidationError_MatchesKnownSentinels(t *testing.T) {
	assert.True(t, isValidationError(models.ErrInvalidLatitude))
	assert.True(t, isValidationError(models.ErrMissingActivity))
	assert.False(t, isValidationError(nil))
}

func TestHealthHandler_ReportsOverallStatus(t *testing.T) {
	h := healthHandler(testEngine(t))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Contains(t, []int{http.StatusOK, http.StatusServiceUnavailable}, rec.Code)

	var snap map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.NotEmpty(t, snap["Overall"])
}

func TestWriteError_WritesJSONErrorBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusInternalServerError, assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, assert.AnError.Error(), payload["error"])
}
