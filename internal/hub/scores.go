package hub

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/DoyleJ11/blockrush-server/internal/engine"
	"github.com/DoyleJ11/blockrush-server/internal/leaderboard"
	"github.com/DoyleJ11/blockrush-server/internal/types"
)

const (
	DefaultLeaderboardLimit  = 10
	DefaultPlayerScoresLimit = 5
	MaxScoresLimit           = 100
)

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, MaxScoresLimit)
}

// SaveScore records a finished game and pushes the refreshed top list to
// roomID when that room still exists. Entries are stored as submitted; the
// only failure is the store itself. Scores no sequence of clears could reach
// are kept but logged.
func (h *Hub) SaveScore(ctx context.Context, roomID, name string, score, lines int) error {
	if name == "" {
		name = engine.DefaultName
	}
	if err := engine.Plausible(score, lines); err != nil {
		h.logger.Warn("implausible score submitted", zap.String("name", name), zap.String("room", roomID),
			zap.Int("score", score), zap.Int("lines", lines), zap.Error(err))
	}

	e := leaderboard.Entry{
		Name:   name,
		Score:  score,
		Lines:  lines,
		RoomID: roomID,
		Date:   h.opts.Now().UTC(),
	}
	if err := h.store.Append(ctx, e); err != nil {
		h.logger.Error("save score", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("save score: %w", err)
	}
	h.logger.Info("score saved", zap.String("name", name), zap.Int("score", score), zap.String("room", roomID))

	top, err := h.store.Top(ctx, h.opts.LeaderboardTop)
	if err != nil {
		h.logger.Error("reload leaderboard", zap.Error(err))
		return nil
	}
	if roomID == "" {
		return nil
	}
	r, err := h.lookup(ctx, roomID, engine.ErrRoomNotFound)
	if err != nil {
		return nil
	}
	r.Notify(ctx, types.ServerMessage{
		Type: types.MsgLeaderboardUpdate,
		Data: types.LeaderboardUpdate{Scores: top},
	})
	return nil
}

// Leaderboard returns the best limit scores. Storage failures yield an empty list.
func (h *Hub) Leaderboard(ctx context.Context, limit int) []leaderboard.Entry {
	top, err := h.store.Top(ctx, clampLimit(limit, DefaultLeaderboardLimit))
	if err != nil {
		h.logger.Error("read leaderboard", zap.Error(err))
		return []leaderboard.Entry{}
	}
	return top
}

// PlayerScores returns name's best limit scores. Storage failures yield an empty list.
func (h *Hub) PlayerScores(ctx context.Context, name string, limit int) []leaderboard.Entry {
	top, err := h.store.TopForName(ctx, name, clampLimit(limit, DefaultPlayerScoresLimit))
	if err != nil {
		h.logger.Error("read player scores", zap.String("name", name), zap.Error(err))
		return []leaderboard.Entry{}
	}
	return top
}
