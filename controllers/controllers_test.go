package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Alidon256/Mindset-Pulse-sub000/controllers"
	"github.com/Alidon256/Mindset-Pulse-sub000/helpers"
	"github.com/Alidon256/Mindset-Pulse-sub000/models"
	"github.com/Alidon256/Mindset-Pulse-sub000/routes"
	"github.com/Alidon256/Mindset-Pulse-sub000/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type FakeEnqueuer struct {
	Sessions []models.CompletedSession
	Err      error
}

func (f *FakeEnqueuer) Enqueue(_ context.Context, _ string, s models.CompletedSession) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	f.Sessions = append(f.Sessions, s)
	return "job-1", nil
}

// FakeProgressionStore forces version conflicts or storage errors.
type FakeProgressionStore struct {
	AlwaysStale bool
	SwapErr     error
}

func (f *FakeProgressionStore) Load(_ context.Context, userID string) (models.ProgressionRecord, error) {
	return models.ProgressionRecord{UserID: userID}, nil
}

func (f *FakeProgressionStore) CompareAndSwap(_ context.Context, _ string, _ int64, _ models.ProgressionState) (bool, error) {
	if f.SwapErr != nil {
		return false, f.SwapErr
	}
	return !f.AlwaysStale, nil
}

type testServer struct {
	router   *gin.Engine
	handler  *controllers.Handler
	checkIns *services.MemoryCheckInStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithStore(t, services.NewMemoryProgressionStore())
}

func newTestServerWithStore(t *testing.T, store services.ProgressionStore) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	helpers.SetJWTKey("controller-test-secret")

	checkIns := services.NewMemoryCheckInStore()
	h := &controllers.Handler{
		CheckIns:    checkIns,
		Progression: services.NewProgressionUpdater(store, 3, time.Second, nil),
		Location:    time.UTC,
		Now:         func() time.Time { return fixedNow },
	}
	r := gin.New()
	routes.SetupRoutes(r, h)
	return &testServer{router: r, handler: h, checkIns: checkIns}
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := helpers.SignToken(userID, userID+"@example.com", role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestCreateCheckIn(t *testing.T) {
	s := newTestServer(t)
	tok := token(t, "u1", "USER")

	w := s.do(t, http.MethodPost, "/api/check-ins", tok, gin.H{
		"answers":         []int{5, 5, 4, 5},
		"sentiment_score": -0.8,
		"insight":         "Rough week.",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.StoredCheckInResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, models.BurnoutRisk, got.State)
	assert.Equal(t, "Burnout Risk", got.StateLabel)
	assert.Equal(t, "Rough week.", got.Insight)
	assert.Equal(t, fixedNow.UnixMilli(), got.TimestampMillis)
	assert.Equal(t, models.Date("2026-03-10"), got.Date)

	w = s.do(t, http.MethodGet, "/api/check-ins", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.StoredCheckInResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestCreateCheckIn_ZeroSentimentIsValid(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/check-ins", token(t, "u1", "USER"), gin.H{
		"answers":         []int{3},
		"sentiment_score": 0,
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestCreateCheckIn_RejectsMalformedInput(t *testing.T) {
	s := newTestServer(t)
	tok := token(t, "u1", "USER")

	bodies := map[string]gin.H{
		"empty answers":       {"answers": []int{}, "sentiment_score": 0.1},
		"answer out of range": {"answers": []int{1, 6}, "sentiment_score": 0.1},
		"missing sentiment":   {"answers": []int{2}},
		"sentiment too large": {"answers": []int{2}, "sentiment_score": 1.5},
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/check-ins", tok, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/progression", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/progression", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCompleteSession_InlineDetachedWrite(t *testing.T) {
	s := newTestServer(t)
	tok := token(t, "u1", "USER")

	w := s.do(t, http.MethodPost, "/api/sessions", tok, gin.H{
		"activity_type":    "meditation",
		"duration_seconds": 600,
		"completion_date":  "2026-03-09",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/sessions", tok, gin.H{
		"activity_type":    "yoga",
		"duration_seconds": 300,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var state models.ProgressionState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, 2, state.CurrentStreak)
	assert.Equal(t, models.Date("2026-03-10"), state.LastActivityDate)
	assert.Equal(t, 15, state.TotalMinutes)
	assert.Equal(t, (50+100+20)+(50+50+20), state.ResiliencePoints)

	w = s.do(t, http.MethodGet, "/api/progression", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var current models.ProgressionState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &current))
	assert.Equal(t, state, current)
}

func TestCompleteSession_Validation(t *testing.T) {
	s := newTestServer(t)
	tok := token(t, "u1", "USER")

	w := s.do(t, http.MethodPost, "/api/sessions", tok, gin.H{"activity_type": "running", "duration_seconds": 60})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/sessions", tok, gin.H{"activity_type": "yoga", "duration_seconds": 60, "completion_date": "10/03/2026"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompleteSession_ConflictAsksToTryAgain(t *testing.T) {
	s := newTestServerWithStore(t, &FakeProgressionStore{AlwaysStale: true})

	w := s.do(t, http.MethodPost, "/api/sessions", token(t, "u1", "USER"), gin.H{
		"activity_type":    "yoga",
		"duration_seconds": 300,
	})
	require.Equal(t, http.StatusConflict, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "try again")
}

func TestCompleteSession_StorageError(t *testing.T) {
	s := newTestServerWithStore(t, &FakeProgressionStore{SwapErr: errors.New("mongo unavailable")})

	w := s.do(t, http.MethodPost, "/api/sessions", token(t, "u1", "USER"), gin.H{
		"activity_type":    "yoga",
		"duration_seconds": 300,
	})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "mongo unavailable")
}

func TestCompleteSession_CompletionDateBounds(t *testing.T) {
	s := newTestServer(t)
	tok := token(t, "u1", "USER")

	// fixedNow is 2026-03-10; a client one zone ahead may already be on the 11th.
	w := s.do(t, http.MethodPost, "/api/sessions", tok, gin.H{"activity_type": "yoga", "duration_seconds": 60, "completion_date": "2026-03-12"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/sessions", tok, gin.H{"activity_type": "yoga", "duration_seconds": 60, "completion_date": "2026-03-11"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/sessions", tok, gin.H{"activity_type": "yoga", "duration_seconds": 60, "completion_date": "2026-03-09"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "late sync must not rewind the streak")

	w = s.do(t, http.MethodGet, "/api/progression", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state models.ProgressionState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, models.Date("2026-03-11"), state.LastActivityDate)
	assert.Equal(t, 1, state.TotalMinutes)
}

func TestCompleteSession_QueuedRejectsOutOfOrderDate(t *testing.T) {
	s := newTestServer(t)
	tok := token(t, "u1", "USER")
	w := s.do(t, http.MethodPost, "/api/sessions", tok, gin.H{"activity_type": "yoga", "duration_seconds": 60})
	require.Equal(t, http.StatusOK, w.Code)

	q := &FakeEnqueuer{}
	s.handler.Queue = q
	w = s.do(t, http.MethodPost, "/api/sessions", tok, gin.H{"activity_type": "yoga", "duration_seconds": 60, "completion_date": "2026-03-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, q.Sessions)
}

func TestCompleteSession_Queued(t *testing.T) {
	s := newTestServer(t)
	q := &FakeEnqueuer{}
	s.handler.Queue = q

	w := s.do(t, http.MethodPost, "/api/sessions", token(t, "u1", "USER"), gin.H{
		"activity_type":    "breathing",
		"duration_seconds": 90,
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, q.Sessions, 1)
	assert.Equal(t, models.Date("2026-03-10"), q.Sessions[0].CompletionDate)

	q.Err = errors.New("redis down")
	w = s.do(t, http.MethodPost, "/api/sessions", token(t, "u1", "USER"), gin.H{"activity_type": "breathing"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAnalyticsSummary(t *testing.T) {
	s := newTestServer(t)
	tok := token(t, "u1", "USER")

	for _, e := range []gin.H{
		{"overall_mood": "Good", "mood_intensity": 8, "cbt_exercise_type": "thought_record",
			"primary_emotions": []gin.H{{"emotion": "joy", "intensity": 7}}, "self_care_activities": []string{"Walk"}},
		{"overall_mood": "Good", "mood_intensity": 6},
		{"overall_mood": "Bad", "mood_intensity": 3, "timestamp": fixedNow.AddDate(0, 0, -2)},
	} {
		w := s.do(t, http.MethodPost, "/api/journal-entries", tok, e)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := s.do(t, http.MethodGet, "/api/analytics/summary?days=7", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary models.AnalyticsSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.TotalCheckIns)
	assert.Equal(t, []models.MoodCount{
		{Mood: "Good", Count: 2, AverageIntensity: 7},
		{Mood: "Bad", Count: 1, AverageIntensity: 3},
	}, summary.OverallMoodDistribution)
	assert.Equal(t, []models.CBTUsage{{ExerciseType: models.CBTThoughtRecord, Count: 1}}, summary.CBTExerciseUsage)
	assert.Equal(t, map[string]int{"Walk": 1}, summary.SelfCareActivityFrequency)

	// Another user sees nothing.
	w = s.do(t, http.MethodGet, "/api/analytics/summary", token(t, "u2", "USER"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 0, summary.TotalCheckIns)
}

func TestCreateJournalEntry_Validation(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/journal-entries", token(t, "u1", "USER"), gin.H{
		"overall_mood":   "Good",
		"mood_intensity": 11,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHighRiskUsers_AdminOnly(t *testing.T) {
	s := newTestServer(t)
	_, err := s.checkIns.SaveResult(context.Background(), "u1", "2026-03-10", models.CheckInResult{Score: 88, State: models.BurnoutRisk})
	require.NoError(t, err)

	w := s.do(t, http.MethodGet, "/api/admin/high-risk", token(t, "u1", "USER"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/admin/high-risk", token(t, "admin", "ADMIN"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out []models.StoredCheckInResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "u1", out[0].UserID)
}
