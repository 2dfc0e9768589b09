package hub

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/blockrush-server/internal/engine"
	"github.com/DoyleJ11/blockrush-server/internal/leaderboard"
	"github.com/DoyleJ11/blockrush-server/internal/room"
)

type HubMsg interface{ isHubMsg() }

type EnsureRoom struct {
	Code  string
	Reply chan *room.Room
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room // nil when absent
}

// RemoveRoom deletes Code only while it still maps to Room, so a late
// removal never drops a newer room under the same code. The room stops itself.
type RemoveRoom struct {
	Code string
	Room *room.Room
}

type TrackMember struct {
	ConnID string
	Code   string
}

// TakeMemberships returns and forgets every room a connection joined.
type TakeMemberships struct {
	ConnID string
	Reply  chan []string
}

type CountRooms struct {
	Reply chan int
}

type ShutdownHub struct{}

func (EnsureRoom) isHubMsg()      {}
func (GetRoom) isHubMsg()         {}
func (RemoveRoom) isHubMsg()      {}
func (TrackMember) isHubMsg()     {}
func (TakeMemberships) isHubMsg() {}
func (CountRooms) isHubMsg()      {}
func (ShutdownHub) isHubMsg()     {}

type Options struct {
	Rules  engine.Rules
	Seeder func() int64
	Store  leaderboard.Store
	Logger *zap.Logger
	// LeaderboardTop is how many entries leaderboard_update carries.
	LeaderboardTop int
	Now            func() time.Time
}

// Hub owns the room registry and is the entry point for every session
// operation. Registry changes run on the hub goroutine; room state changes
// run on each room's own goroutine.
type Hub struct {
	inbox   chan HubMsg
	rooms   map[string]*room.Room
	members map[string]map[string]struct{} // connID -> room codes
	opts    Options
	store   leaderboard.Store
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Store == nil {
		opts.Store = leaderboard.NewMemoryStore()
	}
	if opts.LeaderboardTop <= 0 {
		opts.LeaderboardTop = DefaultLeaderboardLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		rooms:   make(map[string]*room.Room),
		members: make(map[string]map[string]struct{}),
		opts:    opts,
		store:   opts.Store,
		logger:  opts.Logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureRoom:
				if r := h.rooms[msg.Code]; r != nil {
					msg.Reply <- r
					break
				}
				r := h.newRoom(msg.Code)
				h.rooms[msg.Code] = r
				h.logger.Info("room created", zap.String("room", msg.Code))
				msg.Reply <- r

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // May be nil

			case RemoveRoom:
				if h.rooms[msg.Code] == msg.Room {
					delete(h.rooms, msg.Code)
					h.logger.Info("room destroyed", zap.String("room", msg.Code))
				}

			case TrackMember:
				set := h.members[msg.ConnID]
				if set == nil {
					set = make(map[string]struct{})
					h.members[msg.ConnID] = set
				}
				set[msg.Code] = struct{}{}

			case TakeMemberships:
				codes := make([]string, 0, len(h.members[msg.ConnID]))
				for code := range h.members[msg.ConnID] {
					codes = append(codes, code)
				}
				delete(h.members, msg.ConnID)
				msg.Reply <- codes

			case CountRooms:
				msg.Reply <- len(h.rooms)

			case ShutdownHub:
				for _, r := range h.rooms {
					r.Close()
				}
				clear(h.rooms)
				clear(h.members)
				h.cancel()
			}
		}
	}
}

func (h *Hub) newRoom(code string) *room.Room {
	return room.New(h.ctx, code, room.Options{
		Rules:  h.opts.Rules,
		Seeder: h.opts.Seeder,
		Logger: h.logger,
		OnEmpty: func(r *room.Room) {
			h.post(context.Background(), RemoveRoom{Code: r.Code(), Room: r})
		},
	})
}

// post delivers a message to the hub loop unless the hub or ctx is done.
func (h *Hub) post(ctx context.Context, msg HubMsg) bool {
	select {
	case h.inbox <- msg:
		return true
	case <-h.ctx.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

func (h *Hub) ensure(ctx context.Context, code string) (*room.Room, error) {
	reply := make(chan *room.Room, 1)
	if !h.post(ctx, EnsureRoom{Code: code, Reply: reply}) {
		return nil, h.stopped(ctx)
	}
	select {
	case r := <-reply:
		return r, nil
	case <-h.ctx.Done():
		return nil, h.stopped(ctx)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// lookup finds an existing room or reports missing.
func (h *Hub) lookup(ctx context.Context, code string, missing error) (*room.Room, error) {
	reply := make(chan *room.Room, 1)
	if !h.post(ctx, GetRoom{Code: code, Reply: reply}) {
		return nil, h.stopped(ctx)
	}
	select {
	case r := <-reply:
		if r == nil {
			return nil, missing
		}
		return r, nil
	case <-h.ctx.Done():
		return nil, h.stopped(ctx)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) takeMemberships(ctx context.Context, connID string) []string {
	reply := make(chan []string, 1)
	if !h.post(ctx, TakeMemberships{ConnID: connID, Reply: reply}) {
		return nil
	}
	select {
	case codes := <-reply:
		return codes
	case <-h.ctx.Done():
		return nil
	case <-ctx.Done():
		return nil
	}
}

// RoomCount reports how many rooms are live.
func (h *Hub) RoomCount(ctx context.Context) int {
	reply := make(chan int, 1)
	if !h.post(ctx, CountRooms{Reply: reply}) {
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-h.ctx.Done():
		return 0
	case <-ctx.Done():
		return 0
	}
}

func (h *Hub) stopped(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errHubStopped
}
