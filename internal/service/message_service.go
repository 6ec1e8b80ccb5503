package service

import (
	"context"

	"ghonsi-proof/internal/domain"

	"github.com/google/uuid"
)

type MessageService interface {
	Send(ctx context.Context, sender, receiver uuid.UUID, portfolio *uuid.UUID, content, msgType string) (*domain.Message, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Message, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Respond(ctx context.Context, userID, id uuid.UUID, status string) (*domain.Message, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	RequestPortfolio(ctx context.Context, requester, owner uuid.UUID) ([]domain.Message, error)
	Welcome(ctx context.Context, userID uuid.UUID, firstName string) (*domain.Message, error)
}
