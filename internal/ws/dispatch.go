package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/DoyleJ11/blockrush-server/internal/engine"
	"github.com/DoyleJ11/blockrush-server/internal/types"
)

// Reasons produced by the transport itself rather than a room.
const (
	ReasonBadRequest   = "bad_request"
	ReasonUnknownEvent = "unknown_event"
	ReasonServerError  = "server_error"
)

var errBadRequest = errors.New("bad request")

type eventHandler func(ctx context.Context, c *client, data json.RawMessage) (any, error)

var handlers = map[string]eventHandler{
	types.EvtJoin:            onJoin,
	types.EvtStartGame:       onStartGame,
	types.EvtInput:           onInput,
	types.EvtSyncState:       onSyncState,
	types.EvtSendPenalty:     onSendPenalty,
	types.EvtEndGame:         onEndGame,
	types.EvtRestartGame:     onRestartGame,
	types.EvtSaveScore:       onSaveScore,
	types.EvtGetLeaderboard:  onGetLeaderboard,
	types.EvtGetPlayerScores: onGetPlayerScores,
}

// handle runs one inbound message and returns the reply to send, if any.
// Acks go out only when the client asked for one with a non-zero ref.
func (c *client) handle(ctx context.Context, cm types.ClientMessage) (reply types.ServerMessage, ok bool) {
	fn, found := handlers[cm.Type]
	if !found {
		c.logger.Debug("unknown event", zap.String("type", cm.Type))
		return errorMessage(cm.Ref, ReasonUnknownEvent), true
	}

	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("event handler panicked", zap.String("type", cm.Type), zap.Any("panic", p))
			reply, ok = ackMessage(cm.Ref, types.Ack{OK: false, Reason: ReasonServerError}), cm.Ref != 0
		}
	}()

	payload, err := fn(ctx, c, cm.Data)
	if errors.Is(err, errBadRequest) {
		c.logger.Debug("bad payload", zap.String("type", cm.Type), zap.Error(err))
		return errorMessage(cm.Ref, ReasonBadRequest), true
	}
	if cm.Ref == 0 {
		return types.ServerMessage{}, false
	}
	return ackMessage(cm.Ref, payload), true
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func result(err error) types.Ack {
	if err != nil {
		return types.Ack{OK: false, Reason: engine.Reason(err)}
	}
	return types.Ack{OK: true}
}

func onJoin(ctx context.Context, c *client, data json.RawMessage) (any, error) {
	var req types.JoinRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	seed, err := c.hub.Join(ctx, c.member(), req.RoomID, req.Name)
	if err != nil {
		ack := result(err)
		ack.RoomID = req.RoomID
		return ack, nil
	}
	return types.Ack{OK: true, RoomID: req.RoomID, Seed: seed}, nil
}

func onStartGame(ctx context.Context, c *client, data json.RawMessage) (any, error) {
	var req types.RoomRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return result(c.hub.Start(ctx, req.RoomID, c.id)), nil
}

func onInput(ctx context.Context, c *client, data json.RawMessage) (any, error) {
	var req types.RoomRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return result(c.hub.Input(ctx, req.RoomID, c.id)), nil
}

func onSyncState(ctx context.Context, c *client, data json.RawMessage) (any, error) {
	var req types.SyncStateRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return result(c.hub.SyncState(ctx, req.RoomID, c.id, req.State)), nil
}

func onSendPenalty(ctx context.Context, c *client, data json.RawMessage) (any, error) {
	var req types.PenaltyRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return result(c.hub.SendPenalty(ctx, req.RoomID, c.id, req.Lines)), nil
}

func onEndGame(ctx context.Context, c *client, data json.RawMessage) (any, error) {
	var req types.RoomRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return result(c.hub.EndGame(ctx, req.RoomID, c.id)), nil
}

func onRestartGame(ctx context.Context, c *client, data json.RawMessage) (any, error) {
	var req types.RoomRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return result(c.hub.Restart(ctx, req.RoomID, c.id)), nil
}

func onSaveScore(ctx context.Context, c *client, data json.RawMessage) (any, error) {
	var req types.SaveScoreRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return result(c.hub.SaveScore(ctx, req.RoomID, req.Name, req.Score, req.Lines)), nil
}

func onGetLeaderboard(ctx context.Context, c *client, data json.RawMessage) (any, error) {
	var req types.LeaderboardRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return types.ScoresReply{Scores: c.hub.Leaderboard(ctx, req.Limit)}, nil
}

func onGetPlayerScores(ctx context.Context, c *client, data json.RawMessage) (any, error) {
	var req types.PlayerScoresRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return types.ScoresReply{Scores: c.hub.PlayerScores(ctx, req.Name, req.Limit)}, nil
}

func ackMessage(ref int64, payload any) types.ServerMessage {
	return types.ServerMessage{Type: types.MsgAck, Ref: ref, Data: payload}
}

func errorMessage(ref int64, reason string) types.ServerMessage {
	return types.ServerMessage{Type: types.MsgError, Ref: ref, Data: types.ErrorPayload{Reason: reason}}
}
