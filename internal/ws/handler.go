package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/blockrush-server/internal/hub"
	"github.com/DoyleJ11/blockrush-server/internal/room"
	"github.com/DoyleJ11/blockrush-server/internal/types"
)

const (
	outboxSize        = 64
	writeTimeout      = 5 * time.Second
	disconnectTimeout = 5 * time.Second
	readLimit         = 64 << 10
)

type Options struct {
	Logger *zap.Logger
	// OriginPatterns is passed to websocket.Accept; empty means same-origin only.
	OriginPatterns []string
	PingInterval   time.Duration
}

// client is one websocket connection. Its id doubles as the player id in
// every room it joins.
type client struct {
	id     string
	conn   *websocket.Conn
	out    chan types.ServerMessage
	hub    *hub.Hub
	logger *zap.Logger
}

func (c *client) member() room.Member { return room.Member{ID: c.id, Outbox: c.out} }

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ping := opts.PingInterval
	if ping <= 0 {
		ping = 15 * time.Second
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept failed", zap.Error(err))
			return
		}
		conn.SetReadLimit(readLimit)

		id := uuid.NewString()
		c := &client{
			id:     id,
			conn:   conn,
			out:    make(chan types.ServerMessage, outboxSize),
			hub:    h,
			logger: logger.With(zap.String("conn", id)),
		}
		c.logger.Info("client connected", zap.String("remote", r.RemoteAddr))

		ctx, cancel := context.WithCancel(r.Context())
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			defer cancel() // a dead writer also stops the reader
			c.writeLoop(ctx, ping)
		}()

		c.readLoop(ctx)

		// Leave every room before dropping the outbox; rooms never close it.
		dctx, dcancel := context.WithTimeout(context.Background(), disconnectTimeout)
		h.Disconnect(dctx, c.id)
		dcancel()

		cancel()
		<-writerDone
		conn.Close(websocket.StatusNormalClosure, "")
		c.logger.Info("client disconnected")
	}
}

func (c *client) readLoop(ctx context.Context) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if !errors.Is(err, context.Canceled) {
					c.logger.Debug("read ended", zap.Error(err))
				}
			}
			return
		}

		var cm types.ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			c.enqueue(ctx, errorMessage(0, ReasonBadRequest))
			continue
		}
		if reply, ok := c.handle(ctx, cm); ok {
			c.enqueue(ctx, reply)
		}
	}
}

func (c *client) writeLoop(ctx context.Context, ping time.Duration) {
	ticker := time.NewTicker(ping)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg := <-c.out:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c.conn, msg)
			cancel()
			if err != nil {
				c.logger.Debug("write failed", zap.String("type", msg.Type), zap.Error(err))
				return
			}

		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				c.logger.Info("ping failed", zap.Error(err))
				return
			}
		}
	}
}

// enqueue queues a direct reply behind any broadcasts already in the outbox.
func (c *client) enqueue(ctx context.Context, msg types.ServerMessage) {
	select {
	case c.out <- msg:
	case <-ctx.Done():
	}
}
