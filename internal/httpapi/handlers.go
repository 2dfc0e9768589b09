package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/blockrush-server/internal/engine"
	"github.com/DoyleJ11/blockrush-server/internal/hub"
	"github.com/DoyleJ11/blockrush-server/internal/pieces"
	"github.com/DoyleJ11/blockrush-server/internal/types"
)

// previewLen is one bag's worth of pieces.
const previewLen = 7

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// limitParam reads ?limit=N; absent or malformed means "use the default".
func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return n
}

func Leaderboard(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scores := h.Leaderboard(r.Context(), limitParam(r))
		writeJSON(w, http.StatusOK, types.ScoresReply{Scores: scores})
	}
}

func PlayerScores(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		scores := h.PlayerScores(r.Context(), name, limitParam(r))
		writeJSON(w, http.StatusOK, types.ScoresReply{Scores: scores})
	}
}

func RoomView(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "roomId")
		view, err := h.RoomView(r.Context(), code)
		switch {
		case errors.Is(err, engine.ErrRoomNotFound), errors.Is(err, engine.ErrRoomClosed):
			writeJSON(w, http.StatusNotFound, types.ErrorPayload{Reason: engine.Reason(engine.ErrRoomNotFound)})
			return
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, types.ErrorPayload{Reason: engine.Reason(err)})
			return
		}
		writeJSON(w, http.StatusOK, types.RoomView{
			RoomID:  view.Code,
			Phase:   view.Phase,
			Seed:    view.Seed,
			Players: view.Players,
			Preview: pieces.New(view.Seed).Take(previewLen),
		})
	}
}
