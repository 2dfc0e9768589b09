package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/blockrush-server/internal/engine"
	"github.com/DoyleJ11/blockrush-server/internal/room"
)

var errHubStopped = errors.New("hub stopped")

// joinAttempts bounds retries against rooms that close between lookup and join.
const joinAttempts = 3

// Join puts the member into roomID, creating the room when absent, and
// returns the room's current seed.
//
// Membership is recorded before the room sees the join: a caller that gives
// up mid-join may still be admitted, and Disconnect has to find it.
func (h *Hub) Join(ctx context.Context, m room.Member, roomID, name string) (int64, error) {
	if roomID == "" {
		return 0, engine.ErrNoRoom
	}
	if !h.post(ctx, TrackMember{ConnID: m.ID, Code: roomID}) {
		return 0, h.stopped(ctx)
	}

	for attempt := 0; attempt < joinAttempts; attempt++ {
		r, err := h.ensure(ctx, roomID)
		if err != nil {
			return 0, err
		}
		seed, err := r.Join(ctx, m, name)
		if errors.Is(err, engine.ErrRoomClosed) {
			h.logger.Debug("room closed during join, retrying",
				zap.String("room", roomID), zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return 0, err
		}
		return seed, nil
	}
	return 0, engine.ErrRoomClosed
}

func (h *Hub) Start(ctx context.Context, roomID, playerID string) error {
	r, err := h.lookup(ctx, roomID, engine.ErrRoomNotFound)
	if err != nil {
		return err
	}
	return r.Start(ctx, playerID)
}

func (h *Hub) Input(ctx context.Context, roomID, playerID string) error {
	r, err := h.lookup(ctx, roomID, engine.ErrNoRoom)
	if err != nil {
		return err
	}
	return r.Input(ctx, playerID)
}

func (h *Hub) SyncState(ctx context.Context, roomID, playerID string, s engine.Snapshot) error {
	r, err := h.lookup(ctx, roomID, engine.ErrRoomNotFound)
	if err != nil {
		return err
	}
	return r.Sync(ctx, playerID, s)
}

func (h *Hub) SendPenalty(ctx context.Context, roomID, playerID string, lines int) error {
	r, err := h.lookup(ctx, roomID, engine.ErrRoomNotFound)
	if err != nil {
		return err
	}
	return r.Penalty(ctx, playerID, lines)
}

func (h *Hub) EndGame(ctx context.Context, roomID, playerID string) error {
	r, err := h.lookup(ctx, roomID, engine.ErrRoomNotFound)
	if err != nil {
		return err
	}
	return r.End(ctx, playerID)
}

func (h *Hub) Restart(ctx context.Context, roomID, playerID string) error {
	r, err := h.lookup(ctx, roomID, engine.ErrRoomNotFound)
	if err != nil {
		return err
	}
	return r.Restart(ctx, playerID)
}

// Disconnect removes connID from every room it joined. Rooms left empty are
// torn down by their own goroutine.
func (h *Hub) Disconnect(ctx context.Context, connID string) {
	for _, code := range h.takeMemberships(ctx, connID) {
		r, err := h.lookup(ctx, code, engine.ErrRoomNotFound)
		if err != nil {
			continue
		}
		res, err := r.Leave(ctx, connID)
		if err != nil {
			h.logger.Debug("leave skipped", zap.String("room", code), zap.String("player", connID), zap.Error(err))
			continue
		}
		if res.Empty {
			h.logger.Debug("last player left", zap.String("room", code))
		}
	}
}

// RoomView returns the roster view of an existing room.
func (h *Hub) RoomView(ctx context.Context, code string) (room.View, error) {
	r, err := h.lookup(ctx, code, engine.ErrRoomNotFound)
	if err != nil {
		return room.View{}, err
	}
	return r.State(ctx)
}

// Shutdown stops every room and the hub loop.
func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	}
}
