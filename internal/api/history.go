package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"lexiface/pkg/model"
)

// historyStore is the store subset the history endpoint uses.
type historyStore interface {
	GetRecentUtterances(ctx context.Context, limit int) ([]*model.Utterance, error)
}

// HistoryHandler serves the persisted speech dispatch history.
type HistoryHandler struct {
	store historyStore
}

// NewHistoryHandler creates the handler.
func NewHistoryHandler(store historyStore) *HistoryHandler {
	return &HistoryHandler{store: store}
}

type historyResponse struct {
	Success    bool               `json:"success"`
	Utterances []*model.Utterance `json:"utterances"`
}

// HandleHistory handles GET /history. Results are most recent first,
// bounded by the limit query parameter.
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	utterances, err := h.store.GetRecentUtterances(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to load utterance history", "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Success: false, Message: "Failed to load history"})
		return
	}
	if utterances == nil {
		utterances = []*model.Utterance{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Success: true, Utterances: utterances})
}
