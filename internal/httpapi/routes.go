package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/blockrush-server/internal/hub"
	"github.com/DoyleJ11/blockrush-server/internal/logging"
	"github.com/DoyleJ11/blockrush-server/internal/ws"
)

func SetupRoutes(h *hub.Hub, logger *zap.Logger, wsOpts ws.Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Websocket upgrades bypass the access log; connections are logged by ws.
	r.Get("/ws", ws.Handler(h, wsOpts))

	r.Group(func(r chi.Router) {
		r.Use(logging.RequestLogger(logger))
		r.Get("/healthz", Healthz)
		r.Get("/leaderboard", Leaderboard(h))
		r.Get("/leaderboard/{name}", PlayerScores(h))
		r.Get("/rooms/{roomId}", RoomView(h))
	})
	return r
}
