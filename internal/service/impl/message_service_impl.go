package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/events"
	"ghonsi-proof/internal/notify"
	"ghonsi-proof/internal/observability/metrics"
	"ghonsi-proof/internal/observability/middleware"
	"ghonsi-proof/internal/store"
	"ghonsi-proof/internal/validate"

	"github.com/google/uuid"
)

const (
	systemSenderName    = "Ghonsi Proof"
	portfolioSenderName = "PORTFOLIO REQUEST"
	inboxLimit          = 200
)

type MessageServiceImpl struct {
	store    *store.Store
	notifier notify.Notifier
	events   events.Publisher
	Now      func() time.Time
}

func NewMessageService(st *store.Store, n notify.Notifier, pub events.Publisher) *MessageServiceImpl {
	if n == nil {
		n = notify.Nop{}
	}
	return &MessageServiceImpl{store: st, notifier: n, events: pub}
}

func (m *MessageServiceImpl) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

func (m *MessageServiceImpl) Send(ctx context.Context, sender, receiver uuid.UUID, portfolio *uuid.UUID, content, msgType string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if err := validate.MessageContent(content); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	switch msgType {
	case "":
		msgType = domain.MessageTypeGeneral
	case domain.MessageTypeGeneral, domain.MessageTypeProfileRequest:
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", ErrInvalidRequest, msgType)
	}
	if _, err := m.store.Users().GetByID(ctx, receiver); err != nil {
		return nil, notFound(err, "receiver")
	}
	name, email, err := m.senderIdentity(ctx, sender)
	if err != nil {
		return nil, err
	}
	msg := &domain.Message{
		UserID:      receiver,
		SenderID:    sender.String(),
		PortfolioID: portfolio,
		SenderName:  name,
		SenderEmail: email,
		Type:        msgType,
		Content:     content,
		CreatedAt:   m.now(),
	}
	if err := m.create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (m *MessageServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.Message, error) {
	return m.store.Messages().ListForUser(ctx, userID, inboxLimit)
}

func (m *MessageServiceImpl) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.store.Messages().UnreadCount(ctx, userID)
}

func (m *MessageServiceImpl) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return notFound(m.store.Messages().MarkRead(ctx, userID, id), "message")
}

func (m *MessageServiceImpl) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.store.Messages().MarkAllRead(ctx, userID)
}

func (m *MessageServiceImpl) Respond(ctx context.Context, userID, id uuid.UUID, status string) (*domain.Message, error) {
	if status != domain.MessageStatusAccepted && status != domain.MessageStatusDeclined {
		return nil, fmt.Errorf("%w: status must be accepted or declined", ErrInvalidRequest)
	}
	if err := m.store.Messages().SetStatus(ctx, userID, id, status); err != nil {
		return nil, notFound(err, "message")
	}
	return m.store.Messages().Get(ctx, id)
}

func (m *MessageServiceImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return notFound(m.store.Messages().Delete(ctx, userID, id), "message")
}

// RequestPortfolio notifies owner of the request and confirms it to requester.
func (m *MessageServiceImpl) RequestPortfolio(ctx context.Context, requester, owner uuid.UUID) ([]domain.Message, error) {
	if requester == owner {
		return nil, fmt.Errorf("%w: cannot request your own portfolio", ErrInvalidRequest)
	}
	if _, err := m.store.Users().GetByID(ctx, owner); err != nil {
		return nil, notFound(err, "portfolio owner")
	}
	requesterName, requesterEmail, err := m.senderIdentity(ctx, requester)
	if err != nil {
		return nil, err
	}
	ownerName, _, err := m.senderIdentity(ctx, owner)
	if err != nil {
		return nil, err
	}

	now := m.now()
	msgs := []domain.Message{
		{
			UserID:      owner,
			SenderID:    requester.String(),
			PortfolioID: &owner,
			SenderName:  portfolioSenderName,
			SenderEmail: requesterEmail,
			Type:        domain.MessageTypeProfileRequest,
			Content:     fmt.Sprintf("%s has requested for your portfolio", requesterName),
			CreatedAt:   now,
		},
		{
			UserID:      requester,
			SenderID:    domain.SystemSenderID,
			PortfolioID: &owner,
			SenderName:  portfolioSenderName,
			Type:        domain.MessageTypeSystem,
			Content:     fmt.Sprintf("%s, you sent a request for %s portfolio", requesterName, ownerName),
			CreatedAt:   now,
		},
	}
	err = m.store.WithTx(ctx, func(tx *store.Store) error {
		for i := range msgs {
			if err := tx.Messages().Create(ctx, &msgs[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		m.announce(ctx, &msgs[i])
	}
	return msgs, nil
}

func (m *MessageServiceImpl) Welcome(ctx context.Context, userID uuid.UUID, firstName string) (*domain.Message, error) {
	if firstName == "" {
		firstName = "there"
	}
	msg := &domain.Message{
		UserID:     userID,
		SenderID:   domain.SystemSenderID,
		SenderName: systemSenderName,
		Type:       domain.MessageTypeWelcome,
		Content: fmt.Sprintf("Welcome, %s, to Ghonsi Proof. You've taken the first step toward giving your work the visibility it deserves. "+
			"Begin by uploading your past work records on the Upload Proof page, securely, transparently, and permanently. "+
			"Remember the world is your stage, make your work impossible to ignore", firstName),
		CreatedAt: m.now(),
	}
	if err := m.create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (m *MessageServiceImpl) create(ctx context.Context, msg *domain.Message) error {
	if err := m.store.Messages().Create(ctx, msg); err != nil {
		return err
	}
	m.announce(ctx, msg)
	return nil
}

// announce is best effort: the message is already stored.
func (m *MessageServiceImpl) announce(ctx context.Context, msg *domain.Message) {
	metrics.MessagesSentTotal.WithLabelValues(msg.Type).Inc()
	if err := m.notifier.Notify(ctx, msg); err != nil {
		slog.Warn("message notify failed", append(middleware.LogAttrs(ctx), "message_id", msg.ID, "error", err)...)
	}
	if m.events != nil {
		if err := m.events.Publish(ctx, events.TypeMessageCreated, events.MessageCreated{
			MessageID:  msg.ID.String(),
			ReceiverID: msg.UserID.String(),
			SenderID:   msg.SenderID,
			Type:       msg.Type,
			At:         msg.CreatedAt,
		}); err != nil {
			slog.Warn("event publish failed", "type", events.TypeMessageCreated, "error", err)
		}
	}
}

// senderIdentity picks a display name: profile name, then email, then wallet.
func (m *MessageServiceImpl) senderIdentity(ctx context.Context, userID uuid.UUID) (name, email string, err error) {
	u, err := m.store.Users().GetByID(ctx, userID)
	if err != nil {
		return "", "", notFound(err, "user")
	}
	email = u.EmailOrEmpty()
	p, err := m.store.Profiles().GetByUserID(ctx, userID)
	switch {
	case err == nil && p.DisplayName != "":
		return p.DisplayName, email, nil
	case err != nil && !errors.Is(err, store.ErrRecordNotFound):
		return "", "", err
	}
	if email != "" {
		return email, email, nil
	}
	return shortWallet(u.WalletOrEmpty()), email, nil
}

func shortWallet(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}
