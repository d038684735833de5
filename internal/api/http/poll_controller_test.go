package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/planning_poker/internal/domain"
	"github.com/immxrtalbeast/planning_poker/internal/repository"
	"github.com/immxrtalbeast/planning_poker/internal/repository/mocks"
	"github.com/immxrtalbeast/planning_poker/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, repo repository.PollRepository, exposeDetails bool) *gin.Engine {
	t.Helper()
	log := discardLogger()
	svc := service.NewPollService(repo, time.Hour, log)
	controller := NewPollController(svc, 2*time.Second, exposeDetails, log)
	return SetupRouter(controller, []string{"http://localhost:3000"}, log)
}

func perform(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createRoom(t *testing.T, router http.Handler, roomCode string) {
	t.Helper()
	w := perform(t, router, http.MethodPost, "/poll/create", gin.H{
		"question":  "Story size?",
		"options":   []float64{1, 2, 3, 5, 8},
		"createdBy": "alice",
		"roomCode":  roomCode,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestPollFlow(t *testing.T) {
	router := newTestRouter(t, repository.NewInMemoryPollRepository(), false)

	w := perform(t, router, http.MethodPost, "/poll/create", gin.H{
		"question":  "Story size?",
		"options":   []float64{1, 2, 3, 5, 8},
		"createdBy": "alice",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, true, created["success"])
	room, _ := created["roomCode"].(string)
	require.Len(t, room, 6)

	poll := created["poll"].(map[string]any)
	assert.Equal(t, "open", poll["status"])
	assert.Nil(t, poll["closedBy"])
	assert.Equal(t, false, poll["timerActive"])
	assert.Nil(t, poll["timerEndTime"])
	assert.Equal(t, []any{}, poll["voterNames"])

	w = perform(t, router, http.MethodPost, "/poll/timer/start", gin.H{"duration": 30, "createdBy": "alice", "roomCode": room})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	started := decode(t, w)
	assert.Equal(t, true, started["timerActive"])
	assert.NotNil(t, started["timerEndTime"])

	w = perform(t, router, http.MethodPost, "/poll/vote", gin.H{"name": "bob", "value": 2, "roomCode": room})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = perform(t, router, http.MethodPost, "/poll/vote", gin.H{"name": "bob", "value": 3, "roomCode": room})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	voted := decode(t, w)["poll"].(map[string]any)
	assert.Len(t, voted["votes"], 1)

	w = perform(t, router, http.MethodGet, "/poll?roomCode="+room, nil)
	require.Equal(t, http.StatusOK, w.Code)
	open := decode(t, w)
	assert.NotContains(t, open, "votes")
	assert.Equal(t, []any{map[string]any{"name": "bob"}}, open["voterNames"])

	w = perform(t, router, http.MethodGet, "/poll/timer?roomCode="+room, nil)
	require.Equal(t, http.StatusOK, w.Code)
	timer := decode(t, w)
	assert.Equal(t, true, timer["timerActive"])
	assert.InDelta(t, 30, timer["timeRemaining"], 1)

	w = perform(t, router, http.MethodGet, "/poll/results?roomCode="+room, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(t, router, http.MethodPost, "/poll/close", gin.H{"userName": "carol", "roomCode": room})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	closed := decode(t, w)["poll"].(map[string]any)
	assert.Equal(t, "closed", closed["status"])
	assert.Equal(t, "carol", closed["closedBy"])

	w = perform(t, router, http.MethodPost, "/poll/vote", gin.H{"name": "dave", "value": 5, "roomCode": room})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Poll is closed. Voting is not allowed.", decode(t, w)["error"])

	w = perform(t, router, http.MethodGet, "/poll/results?roomCode="+room, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"votes":[{"name":"bob","value":3,"avatar":null}]}`, w.Body.String())

	w = perform(t, router, http.MethodGet, "/poll?roomCode="+room, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["votes"], 1)
}

func TestErrorStatuses(t *testing.T) {
	router := newTestRouter(t, repository.NewInMemoryPollRepository(), false)
	createRoom(t, router, "ROOM01")

	tests := []struct {
		name    string
		method  string
		path    string
		body    any
		status  int
		message string
	}{
		{
			name:    "missing create fields",
			method:  http.MethodPost,
			path:    "/poll/create",
			body:    gin.H{"question": "q"},
			status:  http.StatusBadRequest,
			message: domain.ErrMissingPollFields.Error(),
		},
		{
			name:    "option outside the set",
			method:  http.MethodPost,
			path:    "/poll/vote",
			body:    gin.H{"name": "bob", "value": 99, "roomCode": "ROOM01"},
			status:  http.StatusBadRequest,
			message: "Invalid option value",
		},
		{
			name:    "vote without value",
			method:  http.MethodPost,
			path:    "/poll/vote",
			body:    gin.H{"name": "bob", "roomCode": "ROOM01"},
			status:  http.StatusBadRequest,
			message: "Missing required fields: name, value",
		},
		{
			name:    "unknown room",
			method:  http.MethodGet,
			path:    "/poll?roomCode=ZZZZZZ",
			status:  http.StatusNotFound,
			message: "No active poll found",
		},
		{
			name:    "timer by someone else",
			method:  http.MethodPost,
			path:    "/poll/timer/start",
			body:    gin.H{"duration": 30, "createdBy": "bob", "roomCode": "ROOM01"},
			status:  http.StatusForbidden,
			message: "Only the creator can start the timer",
		},
		{
			name:    "fractional timer duration",
			method:  http.MethodPost,
			path:    "/poll/timer/start",
			body:    gin.H{"duration": 1.5, "createdBy": "alice", "roomCode": "ROOM01"},
			status:  http.StatusBadRequest,
			message: domain.ErrInvalidDuration.Error(),
		},
		{
			name:    "blank closer",
			method:  http.MethodPost,
			path:    "/poll/close",
			body:    gin.H{"userName": "  ", "roomCode": "ROOM01"},
			status:  http.StatusBadRequest,
			message: domain.ErrCloserRequired.Error(),
		},
		{
			name:    "validate without code",
			method:  http.MethodGet,
			path:    "/poll/validate-room",
			status:  http.StatusBadRequest,
			message: "Room code is required",
		},
		{
			name:    "validate unknown code",
			method:  http.MethodGet,
			path:    "/poll/validate-room?roomCode=ZZZZZZ",
			status:  http.StatusNotFound,
			message: "Room not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.message, decode(t, w)["error"])
		})
	}
}

func TestMalformedBody(t *testing.T) {
	router := newTestRouter(t, repository.NewInMemoryPollRepository(), false)

	req := httptest.NewRequest(http.MethodPost, "/poll/vote", bytes.NewBufferString(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, decode(t, w), "details")
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, repository.NewInMemoryPollRepository(), false)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/poll/create"},
		{http.MethodGet, "/poll/vote"},
		{http.MethodPut, "/poll/close"},
		{http.MethodPost, "/poll"},
		{http.MethodDelete, "/poll/results"},
		{http.MethodGet, "/poll/timer/start"},
		{http.MethodPost, "/poll/timer"},
		{http.MethodPost, "/poll/validate-room"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := perform(t, router, tt.method, tt.path, nil)
			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		})
	}
}

func TestVoteAvatars(t *testing.T) {
	router := newTestRouter(t, repository.NewInMemoryPollRepository(), false)
	createRoom(t, router, "ROOM01")

	w := perform(t, router, http.MethodPost, "/poll/vote", gin.H{"name": "bob", "value": 1, "avatar": 0, "roomCode": "ROOM01"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = perform(t, router, http.MethodPost, "/poll/vote", gin.H{"name": "bob", "value": 2, "roomCode": "ROOM01"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = perform(t, router, http.MethodPost, "/poll/vote", gin.H{"name": "eve", "value": 3, "avatar": "🦊", "roomCode": "ROOM01"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = perform(t, router, http.MethodPost, "/poll/vote", gin.H{"name": "mal", "value": 3, "avatar": 1.5, "roomCode": "ROOM01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(t, router, http.MethodPost, "/poll/close", gin.H{"userName": "eve", "roomCode": "ROOM01"})
	require.Equal(t, http.StatusOK, w.Code)

	w = perform(t, router, http.MethodGet, "/poll/results?roomCode=ROOM01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"votes":[
		{"name":"bob","value":2,"avatar":0},
		{"name":"eve","value":3,"avatar":"🦊"}
	]}`, w.Body.String())
}

func TestReadTimerWithoutDeadline(t *testing.T) {
	router := newTestRouter(t, repository.NewInMemoryPollRepository(), false)
	createRoom(t, router, "ROOM01")

	w := perform(t, router, http.MethodGet, "/poll/timer?roomCode=room01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"timerActive":false,"timerEndTime":null,"timeRemaining":null}`, w.Body.String())
}

func TestValidateRoomAndSettings(t *testing.T) {
	router := newTestRouter(t, repository.NewInMemoryPollRepository(), false)
	createRoom(t, router, "abc123")

	w := perform(t, router, http.MethodGet, "/poll/validate-room?roomCode=abc123", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"exists":true,"roomCode":"ABC123"}`, w.Body.String())

	w = perform(t, router, http.MethodGet, "/poll/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"refreshIntervalMs":2000}`, w.Body.String())

	w = perform(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLegacyRequestsWithoutRoomCode(t *testing.T) {
	router := newTestRouter(t, repository.NewInMemoryPollRepository(), false)

	w := perform(t, router, http.MethodGet, "/poll", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	createRoom(t, router, "ROOM01")

	w = perform(t, router, http.MethodPost, "/poll/vote", gin.H{"name": "bob", "value": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = perform(t, router, http.MethodGet, "/poll", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ROOM01", decode(t, w)["roomCode"])
}

func TestStorageFailure(t *testing.T) {
	for _, exposeDetails := range []bool{false, true} {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockPollRepository(ctrl)
		repo.EXPECT().
			GetByRoomCode(gomock.Any(), "ROOM01").
			Return(nil, errors.New("connection reset by peer"))

		router := newTestRouter(t, repo, exposeDetails)
		w := perform(t, router, http.MethodGet, "/poll?roomCode=ROOM01", nil)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.Equal(t, "internal error", body["error"])
		if exposeDetails {
			assert.Contains(t, body["details"], "connection reset by peer")
		} else {
			assert.NotContains(t, body, "details")
		}
	}
}
