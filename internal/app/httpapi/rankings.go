package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *handler) refreshRankings(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Keyword string `json:"keyword"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	snap, err := h.app.Rankings.Refresh(r.Context(), tenantID(r), mux.Vars(r)["id"], payload.Keyword)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (h *handler) rankingHistory(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.app.Rankings.History(r.Context(), tenantID(r), mux.Vars(r)["id"], r.URL.Query().Get("keyword"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (h *handler) latestRanking(w http.ResponseWriter, r *http.Request) {
	snap, err := h.app.Rankings.Latest(r.Context(), tenantID(r), mux.Vars(r)["id"], r.URL.Query().Get("keyword"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
