package athlete_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyroxlab/roxcoach/internal/athlete"
	"github.com/hyroxlab/roxcoach/internal/auth"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type repoMock struct {
	mutex    sync.Mutex
	profiles map[int]*athlete.Profile
	nextID   int
}

func newRepoMock() *repoMock {
	return &repoMock{
		profiles: map[int]*athlete.Profile{},
		nextID:   1,
	}
}

func (m *repoMock) Create(_ context.Context, profile athlete.Profile) (*athlete.Profile, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	profile.ID = m.nextID
	m.nextID++
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt
	m.profiles[profile.UserID] = &profile
	return &profile, nil
}

func (m *repoMock) GetByUserID(_ context.Context, userID int) (*athlete.Profile, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	profile, ok := m.profiles[userID]
	if !ok {
		return nil, athlete.ErrProfileNotFound
	}
	return profile, nil
}

func (m *repoMock) Update(_ context.Context, profile *athlete.Profile) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	existing, ok := m.profiles[profile.UserID]
	if !ok || existing.ID != profile.ID {
		return athlete.ErrProfileNotFound
	}
	m.profiles[profile.UserID] = profile
	return nil
}

func testRouter(repo *repoMock) *mux.Router {
	r := mux.NewRouter()
	handler := athlete.NewHandler(repo)
	handler.SetupRoutes(r.PathPrefix("/profile").Subrouter())
	return r
}

func requestWithUser(method, target, body string, userID int) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(auth.ContextWithUserID(req.Context(), userID))
}

func TestHandler_CreateAndGet(t *testing.T) {
	repo := newRepoMock()
	r := testRouter(repo)

	reqBody := `{
		"division": "open",
		"raceDate": "2026-11-14",
		"goalTimeSeconds": 5400,
		"trainingPhase": "build",
		"equipment": ["skierg", "sled"],
		"injuries": []
	}`
	req := requestWithUser("POST", "/profile", reqBody, 42)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created athlete.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, 42, created.UserID)
	assert.Equal(t, athlete.DivisionOpen, created.Division)
	require.NotNil(t, created.RaceDate)
	assert.Equal(t, "2026-11-14", created.RaceDate.Format("2006-01-02"))
	assert.Equal(t, []string{"skierg", "sled"}, created.Equipment)

	req = requestWithUser("GET", "/profile", "", 42)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched athlete.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, athlete.PhaseBuild, fetched.TrainingPhase)
}

func TestHandler_Get_NotFound(t *testing.T) {
	r := testRouter(newRepoMock())

	req := requestWithUser("GET", "/profile", "", 42)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Create_InvalidDivision(t *testing.T) {
	r := testRouter(newRepoMock())

	req := requestWithUser("POST", "/profile", `{"division": "elite", "trainingPhase": "base"}`, 42)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid division")
}

func TestHandler_Update(t *testing.T) {
	repo := newRepoMock()
	r := testRouter(repo)

	req := requestWithUser("POST", "/profile", `{"division": "open", "trainingPhase": "base"}`, 42)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = requestWithUser("PUT", "/profile", `{"division": "pro", "trainingPhase": "peak", "goalTimeSeconds": 4800}`, 42)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated athlete.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, athlete.DivisionPro, updated.Division)
	assert.Equal(t, athlete.PhasePeak, updated.TrainingPhase)
	assert.Equal(t, 4800, updated.GoalTimeSeconds)

	stored, err := repo.GetByUserID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, athlete.DivisionPro, stored.Division)
}

func TestHandler_NoUserInContext(t *testing.T) {
	r := testRouter(newRepoMock())

	req := httptest.NewRequest("GET", "/profile", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
