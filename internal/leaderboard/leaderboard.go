// Package leaderboard persists finished-game scores as an append-only list
// ranked by descending score. Entries with equal scores keep insertion order.
package leaderboard

import (
	"context"
	"slices"
	"time"
)

type Entry struct {
	Name   string    `json:"name"`
	Score  int       `json:"score"`
	Lines  int       `json:"lines"`
	RoomID string    `json:"roomId"`
	Date   time.Time `json:"date"`
}

// Store is the persistence boundary used by the coordinator. A non-positive
// limit yields no entries.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Top(ctx context.Context, limit int) ([]Entry, error)
	TopForName(ctx context.Context, name string, limit int) ([]Entry, error)
	Close() error
}

// insertRanked places e after every entry scoring at least as much, so ties
// keep the order they were written in.
func insertRanked(entries []Entry, e Entry) []Entry {
	i, _ := slices.BinarySearchFunc(entries, e.Score, func(x Entry, score int) int {
		if x.Score >= score {
			return -1
		}
		return 1
	})
	return slices.Insert(entries, i, e)
}

// head copies the first limit entries. The result is never nil, so an empty
// board encodes as [] rather than null.
func head(entries []Entry, limit int) []Entry {
	limit = min(max(limit, 0), len(entries))
	return append([]Entry{}, entries[:limit]...)
}

func filterName(entries []Entry, name string, limit int) []Entry {
	out := []Entry{}
	for _, e := range entries {
		if len(out) >= limit {
			break
		}
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
