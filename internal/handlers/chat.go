package handlers

import (
	"net/http"

	"github.com/citylink/citylink/internal/models"
	"github.com/citylink/citylink/internal/store"
	"github.com/gorilla/mux"
)

// DefaultHistoryLimit caps how many messages a history read returns.
const DefaultHistoryLimit = 50

type ChatHandler struct {
	Store        store.Store
	HistoryLimit int
}

// RoomMessages hands a client its history snapshot before it attaches
// to the live stream: the last N messages for the room, ascending by
// id, so the client can deduplicate against live deliveries by id.
func (h *ChatHandler) RoomMessages(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["city"]
	if room == "" {
		respondError(w, http.StatusBadRequest, "validation_error")
		return
	}

	limit := h.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	messages, err := h.Store.RoomMessages(room, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	respondJSON(w, http.StatusOK, messages)
}

func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
