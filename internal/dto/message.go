package dto

type SendMessageRequest struct {
	ReceiverID  string `json:"receiverId"`
	PortfolioID string `json:"portfolioId,omitempty"`
	Content     string `json:"content"`
	Type        string `json:"type,omitempty"`
}

type RespondMessageRequest struct {
	Status string `json:"status"`
}

type PortfolioRequest struct {
	OwnerID string `json:"ownerId"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
