package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/blockrush-server/internal/engine"
	"github.com/DoyleJ11/blockrush-server/internal/hub"
	"github.com/DoyleJ11/blockrush-server/internal/leaderboard"
	"github.com/DoyleJ11/blockrush-server/internal/pieces"
	"github.com/DoyleJ11/blockrush-server/internal/room"
	"github.com/DoyleJ11/blockrush-server/internal/types"
	"github.com/DoyleJ11/blockrush-server/internal/ws"
)

func newTestAPI(t *testing.T) (*hub.Hub, http.Handler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	logger := zaptest.NewLogger(t)
	h := hub.NewHub(ctx, hub.Options{
		Store:  leaderboard.NewMemoryStore(),
		Logger: logger,
		Seeder: func() int64 { return 42 },
	})
	return h, SetupRoutes(h, logger, ws.Options{Logger: logger, PingInterval: time.Minute})
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	_, api := newTestAPI(t)
	assert.Equal(t, http.StatusOK, get(t, api, "/healthz").Code)
}

func TestLeaderboardRoutes(t *testing.T) {
	h, api := newTestAPI(t)
	ctx := context.Background()
	require.NoError(t, h.SaveScore(ctx, "", "ann", 300, 1))
	require.NoError(t, h.SaveScore(ctx, "", "bob", 800, 2))
	require.NoError(t, h.SaveScore(ctx, "", "ann", 1600, 2))

	rec := get(t, api, "/leaderboard?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var top types.ScoresReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &top))
	require.Len(t, top.Scores, 2)
	assert.Equal(t, 1600, top.Scores[0].Score)
	assert.Equal(t, "bob", top.Scores[1].Name)

	rec = get(t, api, "/leaderboard/ann")
	require.Equal(t, http.StatusOK, rec.Code)
	var mine types.ScoresReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine.Scores, 2)
	assert.Equal(t, 300, mine.Scores[1].Score)

	rec = get(t, api, "/leaderboard?limit=junk")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &top))
	assert.Len(t, top.Scores, 3)
}

func TestLeaderboard_EmptyIsArray(t *testing.T) {
	_, api := newTestAPI(t)
	rec := get(t, api, "/leaderboard")
	assert.JSONEq(t, `{"scores":[]}`, rec.Body.String())
}

func TestRoomView(t *testing.T) {
	h, api := newTestAPI(t)

	rec := get(t, api, "/rooms/R1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"reason":"room_not_found"}`, rec.Body.String())

	out := make(chan types.ServerMessage, 16)
	_, err := h.Join(context.Background(), room.Member{ID: "c1", Outbox: out}, "R1", "ann")
	require.NoError(t, err)

	rec = get(t, api, "/rooms/R1")
	require.Equal(t, http.StatusOK, rec.Code)
	var view types.RoomView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "R1", view.RoomID)
	assert.Equal(t, engine.PhaseWaiting, view.Phase)
	assert.Equal(t, int64(42), view.Seed)
	require.Len(t, view.Players, 1)
	assert.Equal(t, "ann", view.Players[0].Name)
	assert.Equal(t, engine.RoleHost, view.Players[0].Role)
	assert.Equal(t, pieces.New(42).Take(7), view.Preview)
}

func TestWebsocketRouteRequiresUpgrade(t *testing.T) {
	_, api := newTestAPI(t)
	rec := get(t, api, "/ws")
	assert.GreaterOrEqual(t, rec.Code, 400)
}
