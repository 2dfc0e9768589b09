package room

import (
	"context"

	"github.com/DoyleJ11/blockrush-server/internal/engine"
	"github.com/DoyleJ11/blockrush-server/internal/types"
)

// ask posts a message built around a fresh reply channel and waits for the
// answer. A room that has shut down answers engine.ErrRoomClosed.
func ask[T any](ctx context.Context, r *Room, build func(chan T) Msg) (T, error) {
	var zero T
	reply := make(chan T, 1)

	select {
	case r.inbox <- build(reply):
	case <-r.ctx.Done():
		return zero, engine.ErrRoomClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case v := <-reply:
		return v, nil
	case <-r.ctx.Done():
		// the room may have answered right before stopping
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, engine.ErrRoomClosed
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func askErr(ctx context.Context, r *Room, build func(chan error) Msg) error {
	err, callErr := ask(ctx, r, build)
	if callErr != nil {
		return callErr
	}
	return err
}

func (r *Room) Join(ctx context.Context, m Member, name string) (int64, error) {
	res, err := ask(ctx, r, func(reply chan JoinResult) Msg {
		return Join{Member: m, Name: name, Reply: reply}
	})
	if err != nil {
		return 0, err
	}
	return res.Seed, res.Err
}

func (r *Room) Start(ctx context.Context, playerID string) error {
	return askErr(ctx, r, func(reply chan error) Msg { return Start{PlayerID: playerID, Reply: reply} })
}

func (r *Room) Input(ctx context.Context, playerID string) error {
	return askErr(ctx, r, func(reply chan error) Msg { return Input{PlayerID: playerID, Reply: reply} })
}

func (r *Room) Sync(ctx context.Context, playerID string, s engine.Snapshot) error {
	return askErr(ctx, r, func(reply chan error) Msg { return Sync{PlayerID: playerID, State: s, Reply: reply} })
}

func (r *Room) Penalty(ctx context.Context, playerID string, lines int) error {
	return askErr(ctx, r, func(reply chan error) Msg { return Penalty{PlayerID: playerID, Lines: lines, Reply: reply} })
}

func (r *Room) End(ctx context.Context, playerID string) error {
	return askErr(ctx, r, func(reply chan error) Msg { return End{PlayerID: playerID, Reply: reply} })
}

func (r *Room) Restart(ctx context.Context, playerID string) error {
	return askErr(ctx, r, func(reply chan error) Msg { return Restart{PlayerID: playerID, Reply: reply} })
}

func (r *Room) Leave(ctx context.Context, playerID string) (LeaveResult, error) {
	return ask(ctx, r, func(reply chan LeaveResult) Msg { return Leave{PlayerID: playerID, Reply: reply} })
}

func (r *Room) State(ctx context.Context) (View, error) {
	return ask(ctx, r, func(reply chan View) Msg { return GetState{Reply: reply} })
}

// Notify queues a fan-out without waiting; it gives up if the room is gone.
func (r *Room) Notify(ctx context.Context, msg types.ServerMessage) {
	select {
	case r.inbox <- Notify{Msg: msg}:
	case <-r.ctx.Done():
	case <-ctx.Done():
	}
}
