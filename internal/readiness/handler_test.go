package readiness_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyroxlab/roxcoach/internal/auth"
	"github.com/hyroxlab/roxcoach/internal/readiness"
	"github.com/hyroxlab/roxcoach/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scorerMock struct {
	score *readiness.Score
	err   error
}

func (m *scorerMock) ScoreForUser(_ context.Context, _ int) (*readiness.Score, error) {
	return m.score, m.err
}

func readinessRequest(t *testing.T, scorer *scorerMock, withUser bool) *httptest.ResponseRecorder {
	t.Helper()

	r := mux.NewRouter()
	handler := readiness.NewHandler(scorer, metrics.NewTestManager())
	handler.SetupRoutes(r.PathPrefix("/readiness").Subrouter())

	req := httptest.NewRequest("GET", "/readiness", nil)
	if withUser {
		req = req.WithContext(auth.ContextWithUserID(req.Context(), 42))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Get(t *testing.T) {
	scorer := &scorerMock{
		score: &readiness.Score{
			Score: 84,
			Components: map[string]int{
				readiness.ComponentLoad:        100,
				readiness.ComponentConsistency: 66,
			},
			Weakest: readiness.ComponentConsistency,
		},
	}

	rec := readinessRequest(t, scorer, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var got readiness.Score
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, *scorer.score, got)
}

func TestHandler_Get_EngineError(t *testing.T) {
	rec := readinessRequest(t, &scorerMock{err: errors.New("db gone")}, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandler_Get_NoUser(t *testing.T) {
	rec := readinessRequest(t, &scorerMock{}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
