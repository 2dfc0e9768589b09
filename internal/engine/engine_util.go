package engine

import (
	"errors"
	"math/rand/v2"
	"slices"
)

const maxSeed = 1<<31 - 1

func NewRoom(code string, rules Rules, seeder func() int64) *Room {
	if rules.Capacity <= 0 {
		rules.Capacity = DefaultCapacity
	}
	if rules.MaxNameLen <= 0 {
		rules.MaxNameLen = DefaultMaxNameLen
	}
	if seeder == nil {
		seeder = RandomSeed
	}
	r := &Room{
		Code:    code,
		Phase:   PhaseWaiting,
		Rules:   rules,
		Players: map[string]*Player{},
		Order:   []string{},
		seeder:  seeder,
	}
	r.Seed = seeder()
	return r
}

// RandomSeed returns a seed in [1, 2^31-1].
func RandomSeed() int64 {
	return rand.Int64N(maxSeed) + 1
}

var reasons = []struct {
	err    error
	reason string
}{
	{ErrRoomFull, "room_full"},
	{ErrRoomStarted, "room_started"},
	{ErrNameTooLong, "name_too_long"},
	{ErrNameTaken, "name_already_taken"},
	{ErrNoRoom, "no_room"},
	{ErrRoomNotFound, "room_not_found"},
	{ErrPlayerNotFound, "player_not_found"},
	{ErrInvalidState, "invalid_state"},
	{ErrNotHost, "not_host"},
	{ErrIllegalTransition, "illegal_state"},
	{ErrAlreadyJoined, "already_joined"},
}

// Reason maps an error to the wire rejection code. Anything unrecognised is a
// server_error so internal detail never reaches clients.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "server_error"
}

func removeID(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(x string) bool { return x == id })
}
