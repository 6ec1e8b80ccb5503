package http

import (
	"net/http"
	"strings"

	"ghonsi-proof/internal/dto"
	"ghonsi-proof/internal/httpx"

	"github.com/google/uuid"
)

func (h *handler) listMessages(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Messages.List(r.Context(), principal(r).UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req dto.SendMessageRequest
	if !decode(w, r, &req) {
		return
	}
	receiver, err := uuid.Parse(strings.TrimSpace(req.ReceiverID))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid receiverId")
		return
	}
	var portfolio *uuid.UUID
	if req.PortfolioID != "" {
		id, err := uuid.Parse(req.PortfolioID)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid portfolioId")
			return
		}
		portfolio = &id
	}
	msg, err := h.svc.Messages.Send(r.Context(), principal(r).UserID, receiver, portfolio, req.Content, req.Type)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, msg)
}

func (h *handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Messages.UnreadCount(r.Context(), principal(r).UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.UnreadCountResponse{Count: n})
}

func (h *handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Messages.MarkAllRead(r.Context(), principal(r).UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

func (h *handler) markRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Messages.MarkRead(r.Context(), principal(r).UserID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) respondMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dto.RespondMessageRequest
	if !decode(w, r, &req) {
		return
	}
	msg, err := h.svc.Messages.Respond(r.Context(), principal(r).UserID, id, req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, msg)
}

func (h *handler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Messages.Delete(r.Context(), principal(r).UserID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requestPortfolio notifies a portfolio owner and confirms to the requester.
func (h *handler) requestPortfolio(w http.ResponseWriter, r *http.Request) {
	var req dto.PortfolioRequest
	if !decode(w, r, &req) {
		return
	}
	owner, err := uuid.Parse(strings.TrimSpace(req.OwnerID))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid ownerId")
		return
	}
	msgs, err := h.svc.Messages.RequestPortfolio(r.Context(), principal(r).UserID, owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, msgs)
}
