package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kjstillabower/solawi/internal/bankimport"
	"github.com/kjstillabower/solawi/internal/service"
)

// maxUploadBytes bounds bank statement uploads.
const maxUploadBytes = 10 << 20

// CreateDeposit handles POST /deposits/. The authenticated user is recorded as author.
func (h *Handler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r.Context())
	var body service.DepositInput
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	deposit, err := h.svc.CreateDeposit(r.Context(), body, user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deposit": deposit})
}

// PatchDeposit handles PATCH /deposits/{id}.
func (h *Handler) PatchDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var body service.DepositPatch
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	deposit, err := h.svc.PatchDeposit(r.Context(), id, body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deposit": deposit})
}

// ImportDeposits handles POST /deposits/import with a multipart "file" field holding a
// bank statement CSV.
func (h *Handler) ImportDeposits(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "multipart form with a file is required")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "file is required")
		return
	}
	defer file.Close()
	if !bankimport.AllowedFile(header.Filename) {
		writeError(w, r, http.StatusBadRequest, "UNSUPPORTED_FILE", bankimport.ErrUnsupportedFile.Error())
		return
	}

	txs, err := bankimport.Parse(file)
	if err != nil {
		writeServiceError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	res, err := h.svc.ImportDeposits(r.Context(), txs, user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetPerson handles GET /person/{id}.
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	person, err := h.svc.Person(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

// ListUsers handles GET /users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

type passwordRequest struct {
	Password string `json:"password"`
}

// PatchUser handles PATCH /users/{id}: a user changes their own password.
func (h *Handler) PatchUser(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var body passwordRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	updated, err := h.svc.ChangePassword(r.Context(), user, id, body.Password)
	if errors.Is(err, service.ErrForbidden) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "you cannot change another users's password"})
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": updated})
}
