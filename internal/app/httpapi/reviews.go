package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/localpulse/platform/internal/app/storage"
)

func (h *handler) syncReviews(w http.ResponseWriter, r *http.Request) {
	count, err := h.app.Reviews.Sync(r.Context(), tenantID(r), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"new": count})
}

func (h *handler) listReviews(w http.ResponseWriter, r *http.Request) {
	filter := storage.ReviewFilter{}
	q := r.URL.Query()
	if v := q.Get("min_rating"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		filter.MinRating = n
	}
	if v := q.Get("max_rating"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		filter.MaxRating = n
	}
	if v := q.Get("answered"); v != "" {
		answered, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		filter.Answered = &answered
	}

	revs, err := h.app.Reviews.List(r.Context(), tenantID(r), mux.Vars(r)["id"], filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, revs)
}

func (h *handler) getReview(w http.ResponseWriter, r *http.Request) {
	rev, err := h.app.Reviews.Get(r.Context(), tenantID(r), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *handler) replyReview(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Comment string `json:"comment"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rev, err := h.app.Reviews.Reply(r.Context(), tenantID(r), mux.Vars(r)["id"], payload.Comment)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *handler) deleteReviewReply(w http.ResponseWriter, r *http.Request) {
	rev, err := h.app.Reviews.DeleteReply(r.Context(), tenantID(r), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *handler) createReviewRequest(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		LocationID   string `json:"location_id"`
		CustomerName string `json:"customer_name"`
		Channel      string `json:"channel"`
		Destination  string `json:"destination"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	req, err := h.app.Reviews.CreateRequest(r.Context(), tenantID(r), payload.LocationID, payload.CustomerName, payload.Channel, payload.Destination)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *handler) listReviewRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.app.Reviews.ListRequests(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (h *handler) updateReviewRequestStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	req, err := h.app.Reviews.UpdateRequestStatus(r.Context(), tenantID(r), mux.Vars(r)["id"], payload.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// reviewRequestRedirect is the public tracking link. It marks the request
// clicked and sends the customer to the Google review form.
func (h *handler) reviewRequestRedirect(w http.ResponseWriter, r *http.Request) {
	target, err := h.app.Reviews.TrackClick(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}
