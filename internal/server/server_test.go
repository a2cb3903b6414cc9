package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PascalPons/connect4/internal/solver"
)

func newTestServer() *Server {
	return New(solver.New(), time.Second)
}

func TestHandleSolveReturnsScore(t *testing.T) {
	s := newTestServer()
	body, _ := json.Marshal(map[string]interface{}{"moves": "44", "weak": false})
	req := httptest.NewRequest(http.MethodPost, "/solve", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp solveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 17, resp.Score)
}

func TestHandleSolveRejectsIllegalMoves(t *testing.T) {
	s := newTestServer()
	body, _ := json.Marshal(map[string]interface{}{"moves": "8", "weak": false})
	req := httptest.NewRequest(http.MethodPost, "/solve", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAnalyzeReturnsSevenScores(t *testing.T) {
	s := newTestServer()
	body, _ := json.Marshal(map[string]interface{}{"moves": "4453", "weak": false})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Scores, 7)
}

func TestHandleCacheStatusReportsCounters(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/cache/status", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp cacheStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Greater(t, resp.TableSize, uint64(0))
	assert.Equal(t, uint64(0), resp.NodeCount)
}

func TestHandleSolveRejectsMalformedJSON(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/solve", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
