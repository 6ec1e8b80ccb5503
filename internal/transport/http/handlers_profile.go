package http

import (
	"net/http"

	"ghonsi-proof/internal/dto"
	"ghonsi-proof/internal/httpx"

	"github.com/go-chi/chi/v5"
)

func (h *handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Profiles.List(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) getProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	out, err := h.svc.Profiles.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) profileByWallet(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Profiles.GetByWallet(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// profileProofs lists a portfolio's proofs for public viewing.
func (h *handler) profileProofs(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	out, err := h.svc.Proofs.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) myProfile(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Profiles.Get(r.Context(), principal(r).UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) createProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.svc.Profiles.Create(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}

func (h *handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.svc.Profiles.Update(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
