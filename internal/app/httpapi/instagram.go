package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *handler) instagramConnect(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	conn, err := h.app.Instagram.Connect(r.Context(), tenantID(r), payload.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

func (h *handler) instagramConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.app.Instagram.Connection(r.Context(), tenantID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

func (h *handler) instagramDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Instagram.Disconnect(r.Context(), tenantID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) instagramSyncMedia(w http.ResponseWriter, r *http.Request) {
	count, err := h.app.Instagram.SyncMedia(r.Context(), tenantID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"synced": count})
}

func (h *handler) instagramMedia(w http.ResponseWriter, r *http.Request) {
	media, err := h.app.Instagram.Media(r.Context(), tenantID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, media)
}

func (h *handler) instagramSyncConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.app.Instagram.SyncConversations(r.Context(), tenantID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *handler) instagramConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.app.Instagram.Conversations(r.Context(), tenantID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *handler) instagramMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.app.Instagram.Messages(r.Context(), tenantID(r), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *handler) instagramSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	msg, err := h.app.Instagram.SendMessage(r.Context(), tenantID(r), mux.Vars(r)["id"], payload.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
