// Package httpapi exposes the REST and websocket API over the application
// services. All tenant-scoped routes live under /tenants/{tenant}; the
// handler trusts the tenant established by the auth middleware and rejects
// requests whose path tenant differs from it.
package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/localpulse/platform/internal/app"
	"github.com/localpulse/platform/internal/app/metrics"
	"github.com/localpulse/platform/internal/app/services/instagram"
	"github.com/localpulse/platform/internal/app/services/locations"
	"github.com/localpulse/platform/internal/app/services/rankings"
	"github.com/localpulse/platform/internal/app/services/reviews"
	socialsvc "github.com/localpulse/platform/internal/app/services/social"
	"github.com/localpulse/platform/internal/middleware"
	"github.com/localpulse/platform/pkg/logger"
)

type handler struct {
	app *app.Application
	log *logger.Logger
}

// NewHandler returns the API router.
func NewHandler(application *app.Application, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{app: application, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.HandleFunc("/system/health", h.systemHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/r/{code}", h.reviewRequestRedirect).Methods(http.MethodGet)

	r.HandleFunc("/tenants", h.createTenant).Methods(http.MethodPost)
	r.HandleFunc("/tenants", h.listTenants).Methods(http.MethodGet)

	t := r.PathPrefix("/tenants/{tenant}").Subrouter()
	t.Use(h.tenantScope)
	t.HandleFunc("", h.getTenant).Methods(http.MethodGet)
	t.HandleFunc("", h.deleteTenant).Methods(http.MethodDelete)
	t.HandleFunc("/onboarding", h.advanceOnboarding).Methods(http.MethodPost)
	t.HandleFunc("/settings", h.updateSettings).Methods(http.MethodPut)
	t.HandleFunc("/apikey", h.issueAPIKey).Methods(http.MethodPost)
	t.HandleFunc("/events", h.events).Methods(http.MethodGet)

	t.HandleFunc("/locations", h.createLocation).Methods(http.MethodPost)
	t.HandleFunc("/locations", h.listLocations).Methods(http.MethodGet)
	t.HandleFunc("/locations/{id}", h.getLocation).Methods(http.MethodGet)
	t.HandleFunc("/locations/{id}", h.updateLocation).Methods(http.MethodPut)
	t.HandleFunc("/locations/{id}", h.deleteLocation).Methods(http.MethodDelete)
	t.HandleFunc("/locations/{id}/connect", h.connectLocation).Methods(http.MethodPost)
	t.HandleFunc("/locations/{id}/bind", h.bindLocation).Methods(http.MethodPost)

	t.HandleFunc("/locations/{id}/reviews", h.listReviews).Methods(http.MethodGet)
	t.HandleFunc("/locations/{id}/reviews/sync", h.syncReviews).Methods(http.MethodPost)
	t.HandleFunc("/reviews/{id}", h.getReview).Methods(http.MethodGet)
	t.HandleFunc("/reviews/{id}/reply", h.replyReview).Methods(http.MethodPost, http.MethodPut)
	t.HandleFunc("/reviews/{id}/reply", h.deleteReviewReply).Methods(http.MethodDelete)

	t.HandleFunc("/review-requests", h.createReviewRequest).Methods(http.MethodPost)
	t.HandleFunc("/review-requests", h.listReviewRequests).Methods(http.MethodGet)
	t.HandleFunc("/review-requests/{id}/status", h.updateReviewRequestStatus).Methods(http.MethodPut)

	t.HandleFunc("/locations/{id}/rankings", h.refreshRankings).Methods(http.MethodPost)
	t.HandleFunc("/locations/{id}/rankings", h.rankingHistory).Methods(http.MethodGet)
	t.HandleFunc("/locations/{id}/rankings/latest", h.latestRanking).Methods(http.MethodGet)

	t.HandleFunc("/posts", h.createPost).Methods(http.MethodPost)
	t.HandleFunc("/posts", h.listPosts).Methods(http.MethodGet)
	t.HandleFunc("/posts/calendar", h.postCalendar).Methods(http.MethodGet)
	t.HandleFunc("/posts/{id}", h.getPost).Methods(http.MethodGet)
	t.HandleFunc("/posts/{id}", h.updatePost).Methods(http.MethodPut)
	t.HandleFunc("/posts/{id}", h.deletePost).Methods(http.MethodDelete)
	t.HandleFunc("/posts/{id}/publish", h.publishPost).Methods(http.MethodPost)

	t.HandleFunc("/instagram/connect", h.instagramConnect).Methods(http.MethodPost)
	t.HandleFunc("/instagram/connection", h.instagramConnection).Methods(http.MethodGet)
	t.HandleFunc("/instagram/connection", h.instagramDisconnect).Methods(http.MethodDelete)
	t.HandleFunc("/instagram/media/sync", h.instagramSyncMedia).Methods(http.MethodPost)
	t.HandleFunc("/instagram/media", h.instagramMedia).Methods(http.MethodGet)
	t.HandleFunc("/instagram/conversations/sync", h.instagramSyncConversations).Methods(http.MethodPost)
	t.HandleFunc("/instagram/conversations", h.instagramConversations).Methods(http.MethodGet)
	t.HandleFunc("/instagram/conversations/{id}/messages", h.instagramMessages).Methods(http.MethodGet)
	t.HandleFunc("/instagram/conversations/{id}/messages", h.instagramSendMessage).Methods(http.MethodPost)

	t.HandleFunc("/assist/review-reply", h.assistReviewReply).Methods(http.MethodPost)
	t.HandleFunc("/assist/caption", h.assistCaption).Methods(http.MethodPost)

	return r
}

// tenantScope rejects requests whose path tenant does not match the
// authenticated tenant. Requests without an authenticated tenant (internal
// callers, tests) fall through on the path tenant alone.
func (h *handler) tenantScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pathTenant := mux.Vars(r)["tenant"]
		if authTenant := middleware.TenantID(r.Context()); authTenant != "" && authTenant != pathTenant {
			if middleware.Role(r.Context()) != "admin" {
				writeError(w, http.StatusForbidden, errors.New("tenant mismatch"))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func tenantID(r *http.Request) string {
	return mux.Vars(r)["tenant"]
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// writeServiceError translates service errors into HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), err)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, locations.ErrForbidden),
		errors.Is(err, reviews.ErrForbidden),
		errors.Is(err, rankings.ErrForbidden),
		errors.Is(err, socialsvc.ErrForbidden),
		errors.Is(err, instagram.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, instagram.ErrNotConnected):
		return http.StatusNotFound
	}

	switch reviews.CodeOf(err) {
	case reviews.CodeTokenExpired:
		return http.StatusUnauthorized
	case reviews.CodePermissionDenied:
		return http.StatusForbidden
	case reviews.CodeReviewNotFound:
		return http.StatusNotFound
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "not configured"):
		return http.StatusNotImplemented
	}
	return http.StatusBadRequest
}
