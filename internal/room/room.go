package room

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/blockrush-server/internal/engine"
	"github.com/DoyleJ11/blockrush-server/internal/types"
)

type Msg interface{ isRoomMsg() }

// Member is a connection joining a room. Outbox is owned by the connection;
// the room only ever sends on it, never closes it.
type Member struct {
	ID     string
	Outbox chan<- types.ServerMessage
}

type Join struct {
	Member Member
	Name   string
	Reply  chan JoinResult
}

type JoinResult struct {
	Seed int64
	Err  error
}

type Start struct {
	PlayerID string
	Reply    chan error
}

type Input struct {
	PlayerID string
	Reply    chan error
}

type Sync struct {
	PlayerID string
	State    engine.Snapshot
	Reply    chan error
}

type Penalty struct {
	PlayerID string
	Lines    int
	Reply    chan error
}

type End struct {
	PlayerID string
	Reply    chan error
}

type Restart struct {
	PlayerID string
	Reply    chan error
}

type Leave struct {
	PlayerID string
	Reply    chan LeaveResult
}

type LeaveResult struct {
	Removed bool
	Empty   bool
}

// Notify fans a message out to every member.
type Notify struct {
	Msg types.ServerMessage
}

type GetState struct {
	Reply chan View
}

type Shutdown struct{}

func (Join) isRoomMsg()     {}
func (Start) isRoomMsg()    {}
func (Input) isRoomMsg()    {}
func (Sync) isRoomMsg()     {}
func (Penalty) isRoomMsg()  {}
func (End) isRoomMsg()      {}
func (Restart) isRoomMsg()  {}
func (Leave) isRoomMsg()    {}
func (Notify) isRoomMsg()   {}
func (GetState) isRoomMsg() {}
func (Shutdown) isRoomMsg() {}

type View struct {
	Code       string
	Phase      engine.Phase
	Seed       int64
	Players    []engine.RosterEntry
	NumClients int
}

type Options struct {
	Rules  engine.Rules
	Seeder func() int64
	Logger *zap.Logger
	// OnEmpty runs on the room goroutine once the last player leaves.
	OnEmpty func(*Room)
}

// Room serializes every operation on one engine.Room through its inbox.
type Room struct {
	code    string
	inbox   chan Msg
	state   *engine.Room
	clients map[string]chan<- types.ServerMessage
	closed  bool
	onEmpty func(*Room)
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, code string, opts Options) *Room {
	ctx, cancel := context.WithCancel(parent)
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Room{
		code:    code,
		inbox:   make(chan Msg, 64),
		state:   engine.NewRoom(code, opts.Rules, opts.Seeder),
		clients: make(map[string]chan<- types.ServerMessage),
		onEmpty: opts.OnEmpty,
		logger:  logger.With(zap.String("room", code)),
		ctx:     ctx,
		cancel:  cancel,
	}

	go r.loop()
	return r
}

func (r *Room) Code() string { return r.code }

// Inbox exposes the room's mailbox so tests or the hub can post messages.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) Done() <-chan struct{} { return r.ctx.Done() }

// Close stops the room goroutine.
func (r *Room) Close() { r.cancel() }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)
			case Start:
				msg.Reply <- r.handleStart(msg.PlayerID)
			case Input:
				msg.Reply <- r.requireMember(msg.PlayerID)
			case Sync:
				msg.Reply <- r.handleSync(msg.PlayerID, msg.State)
			case Penalty:
				msg.Reply <- r.handlePenalty(msg.PlayerID, msg.Lines)
			case End:
				msg.Reply <- r.handleEnd(msg.PlayerID)
			case Restart:
				msg.Reply <- r.handleRestart(msg.PlayerID)
			case Leave:
				r.handleLeave(msg)
			case Notify:
				r.broadcast(msg.Msg)
			case GetState:
				msg.Reply <- r.view()
			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	if r.closed {
		msg.Reply <- JoinResult{Err: engine.ErrRoomClosed}
		return
	}
	p, err := r.state.Admit(msg.Member.ID, msg.Name)
	if err != nil {
		r.logger.Info("join rejected", zap.String("player", msg.Member.ID), zap.Error(err))
		if r.state.Empty() {
			r.markEmpty()
		}
		msg.Reply <- JoinResult{Err: err}
		if r.closed {
			r.cancel()
		}
		return
	}

	r.broadcast(types.ServerMessage{
		Type: types.MsgPlayerJoined,
		Data: types.PlayerJoined{ID: p.ID, Name: p.Name},
	})
	r.clients[p.ID] = msg.Member.Outbox

	r.logger.Info("player joined",
		zap.String("player", p.ID),
		zap.String("name", p.Name),
		zap.String("role", string(p.Role)),
	)
	r.broadcastRoster()
	msg.Reply <- JoinResult{Seed: r.state.Seed}
}

func (r *Room) handleStart(id string) error {
	if err := r.state.Start(id); err != nil {
		r.logger.Warn("start_game ignored", zap.String("player", id), zap.Error(err))
		return err
	}
	r.logger.Info("game started", zap.Int64("seed", r.state.Seed))
	r.broadcast(types.ServerMessage{Type: types.MsgGameStarted, Data: types.SeedPayload{Seed: r.state.Seed}})
	return nil
}

func (r *Room) handleSync(id string, snap engine.Snapshot) error {
	if err := r.state.Sync(id, snap); err != nil {
		r.logger.Warn("sync_state rejected", zap.String("player", id), zap.Error(err))
		return err
	}
	r.broadcastExcept(id, types.ServerMessage{
		Type: types.MsgOpponentState,
		Data: types.OpponentState{From: id, State: snap},
	})
	return nil
}

func (r *Room) handlePenalty(id string, lines int) error {
	if err := r.requireMember(id); err != nil {
		return err
	}
	if lines <= 0 {
		return nil
	}
	target, ok := r.state.PenaltyTarget(id)
	if !ok {
		r.logger.Debug("penalty dropped, no live opponent", zap.String("player", id))
		return nil
	}
	r.send(target, types.ServerMessage{
		Type: types.MsgReceivePenalty,
		Data: types.ReceivePenalty{From: id, Lines: lines},
	})
	return nil
}

func (r *Room) handleEnd(id string) error {
	if err := r.requireMember(id); err != nil {
		return err
	}
	if r.state.TryEnd() {
		r.logger.Info("game ended")
		r.broadcast(types.ServerMessage{Type: types.MsgGameEnded, Data: types.SeedPayload{Seed: r.state.Seed}})
	}
	return nil
}

func (r *Room) handleRestart(id string) error {
	if err := r.state.Restart(id); err != nil {
		r.logger.Warn("restart_game ignored", zap.String("player", id), zap.Error(err))
		return err
	}
	r.logger.Info("game restarted", zap.Int64("seed", r.state.Seed))
	r.broadcast(types.ServerMessage{Type: types.MsgGameRestarted, Data: types.SeedPayload{Seed: r.state.Seed}})
	return nil
}

func (r *Room) handleLeave(msg Leave) {
	removed, newHost := r.state.Remove(msg.PlayerID)
	delete(r.clients, msg.PlayerID)
	if removed == nil {
		msg.Reply <- LeaveResult{}
		return
	}
	r.logger.Info("player left", zap.String("player", removed.ID))

	if r.state.Empty() {
		r.markEmpty()
		msg.Reply <- LeaveResult{Removed: true, Empty: true}
		r.cancel()
		return
	}

	r.broadcast(types.ServerMessage{Type: types.MsgPlayerLeft, Data: types.PlayerLeft{ID: removed.ID}})
	if newHost != nil {
		r.logger.Info("host reassigned", zap.String("player", newHost.ID))
		r.broadcast(types.ServerMessage{
			Type: types.MsgHostAssigned,
			Data: types.HostAssigned{ID: newHost.ID, Name: newHost.Name},
		})
	}
	r.broadcastRoster()
	msg.Reply <- LeaveResult{Removed: true}
}

// markEmpty refuses further joins and hands the room back for removal. It
// runs before the triggering reply so removal is queued ahead of any join the
// caller makes next; the room stops itself once that reply is sent.
func (r *Room) markEmpty() {
	r.closed = true
	if r.onEmpty != nil {
		r.onEmpty(r)
	}
}

func (r *Room) requireMember(id string) error {
	if _, ok := r.state.Players[id]; !ok {
		return engine.ErrPlayerNotFound
	}
	return nil
}

func (r *Room) view() View {
	return View{
		Code:       r.code,
		Phase:      r.state.Phase,
		Seed:       r.state.Seed,
		Players:    r.state.Roster(),
		NumClients: len(r.clients),
	}
}

func (r *Room) shutdown() {
	clear(r.clients)
	r.closed = true
	r.cancel()
}

func (r *Room) broadcastRoster() {
	r.broadcast(types.ServerMessage{
		Type: types.MsgRoomUpdate,
		Data: types.RoomUpdate{Players: r.state.Roster()},
	})
}

func (r *Room) broadcast(msg types.ServerMessage) {
	for id := range r.clients {
		r.send(id, msg)
	}
}

func (r *Room) broadcastExcept(skip string, msg types.ServerMessage) {
	for id := range r.clients {
		if id != skip {
			r.send(id, msg)
		}
	}
}

// send never blocks: a full outbox loses this message, not the member.
func (r *Room) send(id string, msg types.ServerMessage) {
	ch, ok := r.clients[id]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		r.logger.Warn("outbox full, dropping message", zap.String("player", id), zap.String("type", msg.Type))
	}
}
