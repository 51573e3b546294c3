package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hangman-rooms/internal/controller"
	"github.com/DoyleJ11/hangman-rooms/internal/history"
	"github.com/DoyleJ11/hangman-rooms/internal/hub"
	"github.com/DoyleJ11/hangman-rooms/internal/room"
	"github.com/DoyleJ11/hangman-rooms/internal/ws"
	"github.com/DoyleJ11/hangman-rooms/pkg/types"
)

type stubRecorder struct {
	history.Recorder
	rounds []history.RoundResult
	gotID  string
	gotN   int
}

func (s *stubRecorder) Recent(_ context.Context, roomID string, limit int) ([]history.RoundResult, error) {
	s.gotID, s.gotN = roomID, limit
	return s.rounds, nil
}

func newAPI(t *testing.T, rec history.Recorder) (http.Handler, *controller.Controller) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ctrl := controller.New(hub.NewHub(ctx, room.Options{GracePeriod: time.Minute}), zap.NewNop())
	return SetupRoutes(ctrl, rec, zap.NewNop(), ws.Options{}), ctrl
}

func do(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestGenerateCode(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Regexp(t, re, code)
	}
}

func TestCreateRoom_ThenLookup(t *testing.T) {
	h, _ := newAPI(t, nil)

	res := do(h, http.MethodPost, "/rooms")
	require.Equal(t, http.StatusCreated, res.Code)

	var created createRoomResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &created))
	assert.Len(t, created.Code, 6)
	_, err := uuid.Parse(created.Identity)
	assert.NoError(t, err)

	res = do(h, http.MethodGet, "/rooms/"+created.Code)
	require.Equal(t, http.StatusOK, res.Code)
	var snap types.Snapshot
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &snap))
	assert.Equal(t, created.Code, snap.RoomID)
	assert.Equal(t, "lobby", snap.Phase)
	assert.NotContains(t, res.Body.String(), "secret")
}

func TestGetRoom_NotFound(t *testing.T) {
	h, _ := newAPI(t, nil)

	res := do(h, http.MethodGet, "/rooms/NOPE42")
	assert.Equal(t, http.StatusNotFound, res.Code)

	var body types.ErrorBody
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "RoomNotFound", body.Code)
}

func TestGetRoom_HidesSecret(t *testing.T) {
	h, ctrl := newAPI(t, nil)
	ctx := context.Background()

	require.NoError(t, ctrl.Join(ctx, room.NewMember("c1", 16), "R1", "u1"))
	require.NoError(t, ctrl.PickRole(ctx, "c1", "R1", "u1", "roleA", "Ana"))
	require.NoError(t, ctrl.Join(ctx, room.NewMember("c2", 16), "R1", "u2"))
	require.NoError(t, ctrl.PickRole(ctx, "c2", "R1", "u2", "roleB", "Bob"))
	require.NoError(t, ctrl.SetWord(ctx, "c1", "R1", "u1", "zebra"))

	res := do(h, http.MethodGet, "/rooms/r1")
	require.Equal(t, http.StatusOK, res.Code)
	assert.NotContains(t, res.Body.String(), "ZEBRA")
	assert.Contains(t, res.Body.String(), `"phase":"playing"`)
}

func TestRoomHistory(t *testing.T) {
	finished := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	stub := &stubRecorder{rounds: []history.RoundResult{
		{RoomID: "R1", Round: 2, Word: "GATO", Outcome: "won", FailCount: 1, Setter: "Ana", Guesser: "Bob", FinishedAt: finished},
	}}
	h, _ := newAPI(t, stub)

	res := do(h, http.MethodGet, "/rooms/r1/history?limit=5")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "R1", stub.gotID)
	assert.Equal(t, 5, stub.gotN)

	var rounds []roundView
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &rounds))
	require.Len(t, rounds, 1)
	assert.Equal(t, "GATO", rounds[0].Word)
	assert.Equal(t, "2026-01-02T03:04:05Z", rounds[0].FinishedAt)

	res = do(h, http.MethodGet, "/rooms/r1/history?limit=0")
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestRoomHistory_Disabled(t *testing.T) {
	h, _ := newAPI(t, nil)
	res := do(h, http.MethodGet, "/rooms/R1/history")
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `[]`, res.Body.String())
}

func TestHealthz(t *testing.T) {
	h, _ := newAPI(t, nil)
	do(h, http.MethodPost, "/rooms")
	do(h, http.MethodPost, "/rooms")

	res := do(h, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"rooms":2}`, res.Body.String())
}
