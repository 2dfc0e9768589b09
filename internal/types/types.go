package types

import (
	"encoding/json"

	"github.com/DoyleJ11/blockrush-server/internal/engine"
	"github.com/DoyleJ11/blockrush-server/internal/leaderboard"
	"github.com/DoyleJ11/blockrush-server/internal/pieces"
)

// Inbound event names.
const (
	EvtJoin            = "join"
	EvtStartGame       = "start_game"
	EvtInput           = "input"
	EvtSyncState       = "sync_state"
	EvtSendPenalty     = "send_penalty"
	EvtEndGame         = "end_game"
	EvtRestartGame     = "restart_game"
	EvtSaveScore       = "save_score"
	EvtGetLeaderboard  = "get_leaderboard"
	EvtGetPlayerScores = "get_player_scores"
)

// Outbound event names.
const (
	MsgAck               = "ack"
	MsgError             = "error"
	MsgPlayerJoined      = "player_joined"
	MsgPlayerLeft        = "player_left"
	MsgHostAssigned      = "host_assigned"
	MsgRoomUpdate        = "room_update"
	MsgGameStarted       = "game_started"
	MsgGameEnded         = "game_ended"
	MsgGameRestarted     = "game_restarted"
	MsgOpponentState     = "opponent_state"
	MsgReceivePenalty    = "receive_penalty"
	MsgLeaderboardUpdate = "leaderboard_update"
)

type ClientMessage struct {
	Type string          `json:"type"`
	Ref  int64           `json:"ref,omitempty"` // non-zero asks for an ack
	Data json.RawMessage `json:"data,omitempty"`
}

type ServerMessage struct {
	Type string `json:"type"`
	Ref  int64  `json:"ref,omitempty"`
	Data any    `json:"data,omitempty"`
}

// Requests

type JoinRequest struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type RoomRequest struct {
	RoomID string `json:"roomId"`
}

type SyncStateRequest struct {
	RoomID string          `json:"roomId"`
	State  engine.Snapshot `json:"state"`
}

type PenaltyRequest struct {
	RoomID string `json:"roomId"`
	Lines  int    `json:"lines"`
}

type SaveScoreRequest struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Lines  int    `json:"lines"`
}

type LeaderboardRequest struct {
	Limit int `json:"limit,omitempty"`
}

type PlayerScoresRequest struct {
	Name  string `json:"name"`
	Limit int    `json:"limit,omitempty"`
}

// Acks

type Ack struct {
	OK     bool   `json:"ok"`
	RoomID string `json:"roomId,omitempty"`
	Seed   int64  `json:"seed,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type ScoresReply struct {
	Scores []leaderboard.Entry `json:"scores"`
}

type ErrorPayload struct {
	Reason string `json:"reason"`
}

// Broadcast payloads

type PlayerJoined struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PlayerLeft struct {
	ID string `json:"id"`
}

type HostAssigned struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RoomUpdate struct {
	Players []engine.RosterEntry `json:"players"`
}

type SeedPayload struct {
	Seed int64 `json:"seed"`
}

type OpponentState struct {
	From  string          `json:"from"`
	State engine.Snapshot `json:"state"`
}

type ReceivePenalty struct {
	From  string `json:"from"`
	Lines int    `json:"lines"`
}

type LeaderboardUpdate struct {
	Scores []leaderboard.Entry `json:"scores"`
}

// RoomView is the HTTP inspection view of a room. Preview is the start of the
// piece sequence the current seed deals, for checking a client's generator.
type RoomView struct {
	RoomID  string               `json:"roomId"`
	Phase   engine.Phase         `json:"phase"`
	Seed    int64                `json:"seed"`
	Players []engine.RosterEntry `json:"players"`
	Preview []pieces.Piece       `json:"preview"`
}
