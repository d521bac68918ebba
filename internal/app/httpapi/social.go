package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	socialsvc "github.com/localpulse/platform/internal/app/services/social"
)

type postPayload struct {
	LocationID  string    `json:"location_id"`
	Caption     string    `json:"caption"`
	MediaURLs   []string  `json:"media_urls"`
	Channels    []string  `json:"channels"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Recur       string    `json:"recur"`
}

func (p postPayload) input() socialsvc.CreateInput {
	return socialsvc.CreateInput{
		LocationID:  p.LocationID,
		Caption:     p.Caption,
		MediaURLs:   p.MediaURLs,
		Channels:    p.Channels,
		ScheduledAt: p.ScheduledAt,
		Recur:       p.Recur,
	}
}

func (h *handler) createPost(w http.ResponseWriter, r *http.Request) {
	var payload postPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	post, err := h.app.Social.Create(r.Context(), tenantID(r), payload.input())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *handler) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.app.Social.List(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *handler) postCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := time.Parse(time.RFC3339, q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := time.Parse(time.RFC3339, q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	posts, err := h.app.Social.Calendar(r.Context(), tenantID(r), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *handler) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.app.Social.Get(r.Context(), tenantID(r), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *handler) updatePost(w http.ResponseWriter, r *http.Request) {
	var payload postPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	post, err := h.app.Social.Update(r.Context(), tenantID(r), mux.Vars(r)["id"], payload.input())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *handler) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Social.Delete(r.Context(), tenantID(r), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) publishPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.app.Social.Publish(r.Context(), tenantID(r), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}
