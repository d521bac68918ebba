package httpapi

import (
	"net/http"
)

func (h *handler) createTenant(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name       string `json:"name"`
		OwnerEmail string `json:"owner_email"`
		Plan       string `json:"plan"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	t, err := h.app.Tenants.Create(r.Context(), payload.Name, payload.OwnerEmail, payload.Plan)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *handler) listTenants(w http.ResponseWriter, r *http.Request) {
	ts, err := h.app.Tenants.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (h *handler) getTenant(w http.ResponseWriter, r *http.Request) {
	t, err := h.app.Tenants.Get(r.Context(), tenantID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) deleteTenant(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Tenants.Delete(r.Context(), tenantID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) advanceOnboarding(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Step string `json:"step"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	t, err := h.app.Tenants.AdvanceOnboarding(r.Context(), tenantID(r), payload.Step)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Settings map[string]string `json:"settings"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	t, err := h.app.Tenants.UpdateSettings(r.Context(), tenantID(r), payload.Settings)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) issueAPIKey(w http.ResponseWriter, r *http.Request) {
	key, t, err := h.app.Tenants.IssueAPIKey(r.Context(), tenantID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"api_key": key,
		"tenant":  t,
	})
}
