package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/localpulse/platform/internal/app/services/locations"
)

type locationPayload struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Phone     string  `json:"phone"`
	Website   string  `json:"website"`
	Category  string  `json:"category"`
}

func (p locationPayload) input() locations.CreateInput {
	return locations.CreateInput{
		Name:      p.Name,
		Address:   p.Address,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Phone:     p.Phone,
		Website:   p.Website,
		Category:  p.Category,
	}
}

func (h *handler) createLocation(w http.ResponseWriter, r *http.Request) {
	var payload locationPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	loc, err := h.app.Locations.Create(r.Context(), tenantID(r), payload.input())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loc)
}

func (h *handler) listLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := h.app.Locations.List(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, locs)
}

func (h *handler) getLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := h.app.Locations.Get(r.Context(), tenantID(r), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (h *handler) updateLocation(w http.ResponseWriter, r *http.Request) {
	var payload locationPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	loc, err := h.app.Locations.Update(r.Context(), tenantID(r), mux.Vars(r)["id"], payload.input())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (h *handler) deleteLocation(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Locations.Delete(r.Context(), tenantID(r), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) connectLocation(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Query string `json:"query"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	candidates, err := h.app.Locations.Connect(r.Context(), tenantID(r), mux.Vars(r)["id"], payload.Query)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (h *handler) bindLocation(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PlaceID       string `json:"place_id"`
		GBPAccountID  string `json:"gbp_account_id"`
		GBPLocationID string `json:"gbp_location_id"`
		ReviewSync    bool   `json:"review_sync"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	loc, err := h.app.Locations.Bind(r.Context(), tenantID(r), mux.Vars(r)["id"], locations.BindInput{
		PlaceID:       payload.PlaceID,
		GBPAccountID:  payload.GBPAccountID,
		GBPLocationID: payload.GBPLocationID,
		ReviewSync:    payload.ReviewSync,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}
