package http

import (
	"net/http"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"
	"ghonsi-proof/internal/httpx"

	"github.com/google/uuid"
)

// listVerifications returns the caller's outgoing requests, optionally narrowed
// by ?proofId=.
func (h *handler) listVerifications(w http.ResponseWriter, r *http.Request) {
	var (
		out []domain.VerificationRequest
		err error
	)
	uid := principal(r).UserID
	if raw := r.URL.Query().Get("proofId"); raw != "" {
		proofID, perr := uuid.Parse(raw)
		if perr != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid proofId")
			return
		}
		out, err = h.svc.Verifications.ListForProof(r.Context(), uid, proofID)
	} else {
		out, err = h.svc.Verifications.ListForUser(r.Context(), uid)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) createVerification(w http.ResponseWriter, r *http.Request) {
	var req dto.VerificationCreateRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.svc.Verifications.Create(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}

func (h *handler) incomingVerifications(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Verifications.ListIncoming(r.Context(), principal(r).UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) getVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	out, err := h.svc.Verifications.Get(r.Context(), principal(r).UserID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) respondVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dto.VerificationRespondRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.svc.Verifications.Respond(r.Context(), principal(r).UserID, id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) deleteVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Verifications.Delete(r.Context(), principal(r).UserID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
