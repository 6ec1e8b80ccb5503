package http

import (
	"net/http"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"
	"ghonsi-proof/internal/httpx"
)

func (h *handler) adminStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Proofs.GlobalStats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// adminProofs is the review queue; ?status= defaults to pending.
func (h *handler) adminProofs(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = domain.ProofStatusPending
	}
	out, err := h.svc.Proofs.ListByStatus(r.Context(), status, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) adminSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dto.ProofStatusRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.svc.Proofs.UpdateStatus(r.Context(), principal(r).UserID, id, req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) adminSetUserDisabled(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dto.UserDisabledRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.svc.Auth.SetUserDisabled(r.Context(), principal(r).UserID, id, req.Disabled)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
