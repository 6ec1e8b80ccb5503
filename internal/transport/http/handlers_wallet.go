package http

import (
	"net/http"

	"ghonsi-proof/internal/dto"
	"ghonsi-proof/internal/httpx"

	"github.com/go-chi/chi/v5"
)

func (h *handler) listWallets(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Wallets.List(r.Context(), principal(r).UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// bindWallet takes the same signed message as wallet sign-in.
func (h *handler) bindWallet(w http.ResponseWriter, r *http.Request) {
	var req dto.WalletSignInRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.svc.Wallets.Bind(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}

func (h *handler) setPrimaryWallet(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Wallets.SetPrimary(r.Context(), principal(r).UserID, chi.URLParam(r, "address")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) unbindWallet(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Wallets.Unbind(r.Context(), principal(r).UserID, chi.URLParam(r, "address")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
