package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

var ErrRoomFull = errors.New("room full")
var ErrRoomStarted = errors.New("room already started")
var ErrNameTooLong = errors.New("name too long")
var ErrNameTaken = errors.New("name already taken")
var ErrNoRoom = errors.New("no room")
var ErrRoomNotFound = errors.New("room not found")
var ErrPlayerNotFound = errors.New("player not found")
var ErrInvalidState = errors.New("invalid state")
var ErrNotHost = errors.New("not host")
var ErrIllegalTransition = errors.New("illegal transition")
var ErrAlreadyJoined = errors.New("already joined")
var ErrRoomClosed = errors.New("room closed")

type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseInProgress Phase = "in_progress"
	PhaseEnded      Phase = "ended"
)

type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

const (
	DefaultCapacity   = 4
	DefaultMaxNameLen = 16
	DefaultName       = "player"
)

// Snapshot is a self-reported progress update. Nil counters mean "not reported".
// Board is relayed to opponents verbatim and never inspected.
type Snapshot struct {
	Board    json.RawMessage `json:"board,omitempty"`
	Score    *int            `json:"score,omitempty"`
	Lines    *int            `json:"lines,omitempty"`
	GameOver *bool           `json:"gameOver,omitempty"`
}

type Player struct {
	ID        string
	Name      string
	Role      Role
	Score     int
	Lines     int
	GameOver  bool
	LastState *Snapshot
}

type Rules struct {
	Capacity   int
	MaxNameLen int
}

// RosterEntry is the public view of a player broadcast in room_update.
type RosterEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Lines    int    `json:"lines"`
	GameOver bool   `json:"gameOver"`
	Role     Role   `json:"role"`
}

// Room is the per-room state machine. It is not safe for concurrent use; the
// room actor owns it exclusively.
type Room struct {
	Code    string
	Phase   Phase
	Seed    int64
	Rules   Rules
	Players map[string]*Player
	Order   []string // join order, used for host succession and penalty rotation

	seeder func() int64
}

func (r *Room) Started() bool { return r.Phase == PhaseInProgress }

func (r *Room) Empty() bool { return len(r.Order) == 0 }

func (r *Room) Host() *Player {
	for _, id := range r.Order {
		if p := r.Players[id]; p.Role == RoleHost {
			return p
		}
	}
	return nil
}

// Admit registers a new player. The first player in becomes host.
func (r *Room) Admit(id, name string) (*Player, error) {
	if len(r.Order) >= r.Rules.Capacity {
		return nil, ErrRoomFull
	}
	if r.Phase != PhaseWaiting {
		return nil, ErrRoomStarted
	}
	if utf8.RuneCountInString(name) > r.Rules.MaxNameLen {
		return nil, ErrNameTooLong
	}
	// Only chosen names must be unique; any number of players may go unnamed.
	if name == "" {
		name = DefaultName
	} else {
		for _, other := range r.Players {
			if other.Name == name {
				return nil, ErrNameTaken
			}
		}
	}
	if _, dup := r.Players[id]; dup {
		return nil, ErrAlreadyJoined
	}

	role := RoleGuest
	if r.Empty() {
		role = RoleHost
	}
	p := &Player{ID: id, Name: name, Role: role}
	r.Players[id] = p
	r.Order = append(r.Order, id)
	return p, nil
}

// Remove drops a player. If the host left and players remain, the next player
// in join order is promoted and returned as newHost.
func (r *Room) Remove(id string) (removed, newHost *Player) {
	p, ok := r.Players[id]
	if !ok {
		return nil, nil
	}
	delete(r.Players, id)
	r.Order = removeID(r.Order, id)

	if p.Role == RoleHost && !r.Empty() {
		newHost = r.Players[r.Order[0]]
		newHost.Role = RoleHost
	}
	return p, newHost
}

// Start moves waiting -> in_progress. Only the host may start.
func (r *Room) Start(id string) error {
	if err := r.requireHost(id); err != nil {
		return err
	}
	if r.Phase != PhaseWaiting {
		return fmt.Errorf("start from %s: %w", r.Phase, ErrIllegalTransition)
	}
	r.Phase = PhaseInProgress
	return nil
}

// Sync validates and applies a snapshot from player id.
func (r *Room) Sync(id string, s Snapshot) error {
	p, ok := r.Players[id]
	if !ok {
		return ErrPlayerNotFound
	}
	if err := Validate(*p, s); err != nil {
		return err
	}
	if s.Score != nil {
		p.Score = *s.Score
	}
	if s.Lines != nil {
		p.Lines = *s.Lines
	}
	if s.GameOver != nil {
		p.GameOver = *s.GameOver
	}
	snap := s
	p.LastState = &snap
	return nil
}

// TryEnd moves in_progress -> ended once every player is finished, or all but
// one when several remain. It reports whether the transition happened.
func (r *Room) TryEnd() bool {
	if r.Phase != PhaseInProgress {
		return false
	}
	finished := 0
	for _, p := range r.Players {
		if p.GameOver {
			finished++
		}
	}
	need := len(r.Order)
	if need > 1 {
		need--
	}
	if finished < need {
		return false
	}
	r.Phase = PhaseEnded
	r.Reseed()
	return true
}

// Restart resets every player and begins a new game with a fresh seed.
// Legal from in_progress or ended; a waiting room must be started instead.
func (r *Room) Restart(id string) error {
	if err := r.requireHost(id); err != nil {
		return err
	}
	if r.Phase == PhaseWaiting {
		return fmt.Errorf("restart from %s: %w", r.Phase, ErrIllegalTransition)
	}
	for _, p := range r.Players {
		p.Score = 0
		p.Lines = 0
		p.GameOver = false
		p.LastState = nil
	}
	r.Reseed()
	r.Phase = PhaseInProgress
	return nil
}

// Reseed replaces the seed with one that differs from the current value.
func (r *Room) Reseed() {
	prev := r.Seed
	for r.Seed == prev {
		r.Seed = r.seeder()
	}
}

func (r *Room) Roster() []RosterEntry {
	out := make([]RosterEntry, 0, len(r.Order))
	for _, id := range r.Order {
		p := r.Players[id]
		out = append(out, RosterEntry{
			ID:       p.ID,
			Name:     p.Name,
			Score:    p.Score,
			Lines:    p.Lines,
			GameOver: p.GameOver,
			Role:     p.Role,
		})
	}
	return out
}

func (r *Room) requireHost(id string) error {
	p, ok := r.Players[id]
	if !ok {
		return ErrPlayerNotFound
	}
	if p.Role != RoleHost {
		return ErrNotHost
	}
	return nil
}
