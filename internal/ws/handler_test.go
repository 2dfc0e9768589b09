package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/blockrush-server/internal/hub"
	"github.com/DoyleJ11/blockrush-server/internal/leaderboard"
	"github.com/DoyleJ11/blockrush-server/internal/types"
)

type frame struct {
	Type string          `json:"type"`
	Ref  int64           `json:"ref"`
	Data json.RawMessage `json:"data"`
}

func newServer(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	logger := zaptest.NewLogger(t)
	h := hub.NewHub(ctx, hub.Options{Store: leaderboard.NewMemoryStore(), Logger: logger})
	srv := httptest.NewServer(Handler(h, Options{Logger: logger, PingInterval: time.Minute}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.CloseNow() })
	return c
}

func send(t *testing.T, c *websocket.Conn, typ string, ref int64, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, c, types.ClientMessage{Type: typ, Ref: ref, Data: raw}))
}

// readUntil skips frames until one matches typ (and ref, for acks).
func readUntil(t *testing.T, c *websocket.Conn, typ string, ref int64) frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		var f frame
		require.NoError(t, wsjson.Read(ctx, c, &f), "waiting for %s", typ)
		if f.Type == typ && (ref == 0 || f.Ref == ref) {
			return f
		}
	}
}

// readEach collects n frames matching keep, in arrival order, skipping the rest.
func readEach(t *testing.T, c *websocket.Conn, n int, keep func(frame) bool) []frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var out []frame
	for len(out) < n {
		var f frame
		require.NoError(t, wsjson.Read(ctx, c, &f), "waiting for %d frames, have %d", n, len(out))
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

func decodeAs[T any](t *testing.T, f frame) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(f.Data, &v))
	return v
}

func TestWS_JoinAndBroadcast(t *testing.T) {
	url := newServer(t)
	a, b := dial(t, url), dial(t, url)

	send(t, a, types.EvtJoin, 1, types.JoinRequest{RoomID: "R1", Name: "ann"})
	ack := decodeAs[types.Ack](t, readUntil(t, a, types.MsgAck, 1))
	require.True(t, ack.OK)
	assert.Equal(t, "R1", ack.RoomID)
	assert.NotZero(t, ack.Seed)

	send(t, b, types.EvtJoin, 7, types.JoinRequest{RoomID: "R1", Name: "bob"})
	ackB := decodeAs[types.Ack](t, readUntil(t, b, types.MsgAck, 7))
	assert.Equal(t, ack.Seed, ackB.Seed)

	joined := decodeAs[types.PlayerJoined](t, readUntil(t, a, types.MsgPlayerJoined, 0))
	assert.Equal(t, "bob", joined.Name)
	update := decodeAs[types.RoomUpdate](t, readUntil(t, a, types.MsgRoomUpdate, 0))
	assert.Len(t, update.Players, 2)

	// guest cannot start
	send(t, b, types.EvtStartGame, 8, types.RoomRequest{RoomID: "R1"})
	rejected := decodeAs[types.Ack](t, readUntil(t, b, types.MsgAck, 8))
	assert.False(t, rejected.OK)
	assert.Equal(t, "not_host", rejected.Reason)

	send(t, a, types.EvtStartGame, 2, types.RoomRequest{RoomID: "R1"})
	started := decodeAs[types.SeedPayload](t, readUntil(t, b, types.MsgGameStarted, 0))
	assert.Equal(t, ack.Seed, started.Seed)
}

func TestWS_JoinAckFollowsRoster(t *testing.T) {
	url := newServer(t)
	a := dial(t, url)

	send(t, a, types.EvtJoin, 1, types.JoinRequest{RoomID: "R1", Name: "ann"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var first, second frame
	require.NoError(t, wsjson.Read(ctx, a, &first))
	require.NoError(t, wsjson.Read(ctx, a, &second))
	assert.Equal(t, types.MsgRoomUpdate, first.Type)
	assert.Equal(t, types.MsgAck, second.Type)
}

func TestWS_JoinRejection(t *testing.T) {
	url := newServer(t)
	a, b := dial(t, url), dial(t, url)

	send(t, a, types.EvtJoin, 1, types.JoinRequest{RoomID: "", Name: "ann"})
	ack := decodeAs[types.Ack](t, readUntil(t, a, types.MsgAck, 1))
	assert.False(t, ack.OK)
	assert.Equal(t, "no_room", ack.Reason)

	send(t, a, types.EvtJoin, 2, types.JoinRequest{RoomID: "R1", Name: "ann"})
	require.True(t, decodeAs[types.Ack](t, readUntil(t, a, types.MsgAck, 2)).OK)

	send(t, b, types.EvtJoin, 3, types.JoinRequest{RoomID: "R1", Name: "ann"})
	taken := decodeAs[types.Ack](t, readUntil(t, b, types.MsgAck, 3))
	assert.Equal(t, types.Ack{OK: false, RoomID: "R1", Reason: "name_already_taken"}, taken)
}

func TestWS_BadFramesGetErrors(t *testing.T) {
	url := newServer(t)
	a := dial(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, a.Write(ctx, websocket.MessageText, []byte("{not json")))
	f := readUntil(t, a, types.MsgError, 0)
	assert.Equal(t, ReasonBadRequest, decodeAs[types.ErrorPayload](t, f).Reason)

	send(t, a, "fly", 3, map[string]any{})
	f = readUntil(t, a, types.MsgError, 3)
	assert.Equal(t, ReasonUnknownEvent, decodeAs[types.ErrorPayload](t, f).Reason)

	require.NoError(t, a.Write(ctx, websocket.MessageText, []byte(`{"type":"join","ref":4,"data":{"roomId":5}}`)))
	f = readUntil(t, a, types.MsgError, 4)
	assert.Equal(t, ReasonBadRequest, decodeAs[types.ErrorPayload](t, f).Reason)
}

func TestWS_NoRefNoAck(t *testing.T) {
	url := newServer(t)
	a := dial(t, url)

	send(t, a, types.EvtGetLeaderboard, 0, types.LeaderboardRequest{})
	send(t, a, types.EvtGetLeaderboard, 9, types.LeaderboardRequest{Limit: 3})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var f frame
	require.NoError(t, wsjson.Read(ctx, a, &f))
	assert.Equal(t, types.MsgAck, f.Type)
	assert.Equal(t, int64(9), f.Ref)
	assert.JSONEq(t, `{"scores":[]}`, string(f.Data))
}

func TestWS_SaveScoreAndQuery(t *testing.T) {
	url := newServer(t)
	a := dial(t, url)

	send(t, a, types.EvtJoin, 1, types.JoinRequest{RoomID: "R1", Name: "ann"})
	readUntil(t, a, types.MsgAck, 1)

	// the ack and the room's leaderboard_update may arrive in either order
	send(t, a, types.EvtSaveScore, 2, types.SaveScoreRequest{RoomID: "R1", Name: "ann", Score: 500, Lines: 3})
	got := readEach(t, a, 2, func(f frame) bool {
		return f.Type == types.MsgLeaderboardUpdate || (f.Type == types.MsgAck && f.Ref == 2)
	})
	for _, f := range got {
		switch f.Type {
		case types.MsgAck:
			assert.True(t, decodeAs[types.Ack](t, f).OK)
		case types.MsgLeaderboardUpdate:
			assert.Len(t, decodeAs[types.LeaderboardUpdate](t, f).Scores, 1)
		}
	}

	// stored as submitted, even past the per-line ceiling
	send(t, a, types.EvtSaveScore, 3, types.SaveScoreRequest{RoomID: "R1", Name: "ann", Score: 1000, Lines: 1})
	assert.True(t, decodeAs[types.Ack](t, readUntil(t, a, types.MsgAck, 3)).OK)

	send(t, a, types.EvtGetPlayerScores, 4, types.PlayerScoresRequest{Name: "ann"})
	scores := decodeAs[types.ScoresReply](t, readUntil(t, a, types.MsgAck, 4))
	require.Len(t, scores.Scores, 2)
	assert.Equal(t, 1000, scores.Scores[0].Score)
	assert.Equal(t, 500, scores.Scores[1].Score)
}

func TestWS_DisconnectPromotesHost(t *testing.T) {
	url := newServer(t)
	a, b := dial(t, url), dial(t, url)

	send(t, a, types.EvtJoin, 1, types.JoinRequest{RoomID: "R1", Name: "ann"})
	readUntil(t, a, types.MsgAck, 1)
	send(t, b, types.EvtJoin, 1, types.JoinRequest{RoomID: "R1", Name: "bob"})
	readUntil(t, b, types.MsgAck, 1)

	a.Close(websocket.StatusNormalClosure, "")

	readUntil(t, b, types.MsgPlayerLeft, 0)
	promoted := decodeAs[types.HostAssigned](t, readUntil(t, b, types.MsgHostAssigned, 0))
	assert.Equal(t, "bob", promoted.Name)

	send(t, b, types.EvtStartGame, 2, types.RoomRequest{RoomID: "R1"})
	assert.True(t, decodeAs[types.Ack](t, readUntil(t, b, types.MsgAck, 2)).OK)
}
