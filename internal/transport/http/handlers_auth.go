package http

import (
	"net/http"
	"strconv"

	"ghonsi-proof/internal/dto"
	"ghonsi-proof/internal/httpx"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// decode reads the JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(r, v); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil {
		return v
	}
	return def
}

func (h *handler) sendOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.SendOTPRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.Auth.SendOTP(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, map[string]bool{"sent": true})
}

func (h *handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyOTPRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Auth.VerifyOTP(r.Context(), req, h.clientIP(r), r.UserAgent())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Auth.Register(r.Context(), req, h.clientIP(r), r.UserAgent())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, res)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Auth.Login(r.Context(), req, h.clientIP(r), r.UserAgent())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) walletSignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.WalletSignInRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Auth.WalletSignIn(r.Context(), req, h.clientIP(r), r.UserAgent())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Auth.Refresh(r.Context(), req.RefreshToken, h.clientIP(r), r.UserAgent())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.Auth.Logout(r.Context(), req.RefreshToken); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Auth.Me(r.Context(), principal(r).UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

// accountActivity lists the caller's recent audit entries, newest first.
func (h *handler) accountActivity(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Auth.Activity(r.Context(), principal(r).UserID, queryInt(r, "limit", 50))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) linkWallet(w http.ResponseWriter, r *http.Request) {
	var req dto.WalletSignInRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Auth.LinkWallet(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) linkEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.LinkEmailRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Auth.LinkEmail(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.svc.Auth.DeleteAccount(r.Context(), principal(r).UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.DeleteAccountResponse{Deleted: deleted})
}
