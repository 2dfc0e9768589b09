package engine

import (
	"fmt"

	"github.com/DoyleJ11/blockrush-server/internal/pieces"
)

var (
	ErrRegressingScore  = fmt.Errorf("%w: regressing score", ErrInvalidState)
	ErrRegressingLines  = fmt.Errorf("%w: regressing lines", ErrInvalidState)
	ErrImplausibleScore = fmt.Errorf("%w: implausible score/line ratio", ErrInvalidState)
	ErrResurrect        = fmt.Errorf("%w: cannot resurrect", ErrInvalidState)
)

// Validate bounds a reported snapshot against the last accepted one. It does
// not replay the game, so a cheat that stays within these bounds passes.
func Validate(p Player, s Snapshot) error {
	if s.Score != nil && *s.Score < p.Score {
		return fmt.Errorf("%w (%d < %d)", ErrRegressingScore, *s.Score, p.Score)
	}
	if s.Lines != nil && *s.Lines < p.Lines {
		return fmt.Errorf("%w (%d < %d)", ErrRegressingLines, *s.Lines, p.Lines)
	}
	if s.Score != nil && s.Lines != nil && pieces.OverCeiling(*s.Score, *s.Lines) {
		return fmt.Errorf("%w (%d points for %d lines)", ErrImplausibleScore, *s.Score, *s.Lines)
	}
	if p.GameOver && s.GameOver != nil && !*s.GameOver {
		return ErrResurrect
	}
	return nil
}

// Plausible checks a standalone score/lines pair, as submitted to the leaderboard.
func Plausible(score, lines int) error {
	if score < 0 || lines < 0 {
		return fmt.Errorf("%w: negative counters", ErrInvalidState)
	}
	if pieces.OverCeiling(score, lines) {
		return ErrImplausibleScore
	}
	return nil
}
