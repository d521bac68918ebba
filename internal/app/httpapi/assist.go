package httpapi

import (
	"net/http"
)

func (h *handler) assistReviewReply(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ReviewID string `json:"review_id"`
		Tone     string `json:"tone"`
		Count    int    `json:"count"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	drafts, err := h.app.Assist.ReviewReply(r.Context(), tenantID(r), payload.ReviewID, payload.Tone, payload.Count)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"drafts": drafts})
}

func (h *handler) assistCaption(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Topic    string   `json:"topic"`
		Tone     string   `json:"tone"`
		Hashtags []string `json:"hashtags"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	caption, err := h.app.Assist.Caption(r.Context(), tenantID(r), payload.Topic, payload.Tone, payload.Hashtags)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"caption": caption})
}
