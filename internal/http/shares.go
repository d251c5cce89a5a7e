package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kjstillabower/solawi/internal/service"
)

// ListShares handles GET /shares.
func (h *Handler) ListShares(w http.ResponseWriter, r *http.Request) {
	shares, err := h.svc.ListShares(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"shares": shares})
}

// CreateShare handles POST /shares.
func (h *Handler) CreateShare(w http.ResponseWriter, r *http.Request) {
	var body service.ShareInput
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	share, err := h.svc.CreateShare(r.Context(), body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"share": share})
}

// GetShare handles GET /shares/{id}.
func (h *Handler) GetShare(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	details, err := h.svc.ShareDetails(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"share": details})
}

// shareUpdateRequest is the body of POST /shares/{id}. Clients echo the id back; it is
// accepted and ignored in favor of the path.
type shareUpdateRequest struct {
	ID        json.RawMessage `json:"id"`
	StationID *int64          `json:"station_id"`
	Note      *string         `json:"note"`
	Archived  *bool           `json:"archived"`
}

// UpdateShare handles POST /shares/{id}.
func (h *Handler) UpdateShare(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var body shareUpdateRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if body.StationID == nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "station_id is required")
		return
	}
	in := service.ShareInput{StationID: body.StationID, Note: body.Note}
	if body.Archived != nil {
		in.Archived = *body.Archived
	}
	share, err := h.svc.UpdateShare(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"share": share})
}

// PatchShare handles PATCH /shares/{id}.
func (h *Handler) PatchShare(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var body service.SharePatch
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	share, err := h.svc.PatchShare(r.Context(), id, body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"share": share})
}

// ShareEmails handles GET /shares/{id}/emails.
func (h *Handler) ShareEmails(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	emails, err := h.svc.ShareEmails(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"emails": emails})
}

// ShareDeposits handles GET /shares/{id}/deposits.
func (h *Handler) ShareDeposits(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	deposits, err := h.svc.ShareDeposits(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deposits": deposits})
}

// ShareBets handles GET /shares/{id}/bets.
func (h *Handler) ShareBets(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	bets, err := h.svc.ShareBets(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bets": bets})
}

// PaymentStatus handles GET /shares/payment_status.
func (h *Handler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.PaymentStatus(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"shares": status})
}

type mergeRequest struct {
	Share1 *int64 `json:"share1"`
	Share2 *int64 `json:"share2"`
}

// MergeShares handles POST /shares/merge: share2 is merged into share1.
func (h *Handler) MergeShares(w http.ResponseWriter, r *http.Request) {
	var body mergeRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if body.Share1 == nil || body.Share2 == nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "share1 and share2 are required")
		return
	}
	share, err := h.svc.MergeShares(r.Context(), *body.Share1, *body.Share2)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "success", "share": share})
}

// CreateBet handles POST /shares/{id}/bets.
func (h *Handler) CreateBet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var body service.BetInput
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	bet, err := h.svc.CreateBet(r.Context(), id, body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bet": bet})
}

// UpdateBet handles PUT /bets/{id}.
func (h *Handler) UpdateBet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var body service.BetInput
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	bet, err := h.svc.UpdateBet(r.Context(), id, body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bet": bet})
}

// DeleteBet handles DELETE /shares/{id}/bets/{bet_id}.
func (h *Handler) DeleteBet(w http.ResponseWriter, r *http.Request) {
	shareID, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	betID, err := pathID(r, "bet_id")
	if err != nil {
		writeServiceError(w, r, fmt.Errorf("bet: %w", err))
		return
	}
	if err := h.svc.DeleteBet(r.Context(), shareID, betID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
