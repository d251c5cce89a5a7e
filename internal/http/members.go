package http

import (
	"net/http"

	"github.com/kjstillabower/solawi/internal/service"
)

// ListMembers handles GET /members. Any non-empty active parameter restricts the list
// to members of currently active shares.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") != ""
	members, err := h.svc.ListMembers(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

// CreateMember handles POST /members.
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var body service.MemberInput
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	member, err := h.svc.CreateMember(r.Context(), body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"member": member})
}

// PatchMember handles PATCH /members/{id}.
func (h *Handler) PatchMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var body service.MemberPatch
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	member, err := h.svc.PatchMember(r.Context(), id, body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"member": member})
}

// DeleteMember handles DELETE /members/{id}.
func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.svc.DeleteMember(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListStations handles GET /stations.
func (h *Handler) ListStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.svc.ListStations(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stations": stations})
}
