package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MessageTypeGeneral        = "general"
	MessageTypeProfileRequest = "profile_request"
	MessageTypeSystem         = "system"
	MessageTypeWelcome        = "welcome"
)

const (
	MessageStatusNone     = ""
	MessageStatusAccepted = "accepted"
	MessageStatusDeclined = "declined"
)

// Message is a notification addressed to UserID (the receiver).
type Message struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      UserID     `gorm:"type:uuid;not null;index:idx_messages_user_created,priority:1" json:"userId"`
	SenderID    string     `gorm:"type:text;not null" json:"senderId"`
	PortfolioID *uuid.UUID `gorm:"type:uuid" json:"portfolioId,omitempty"`
	SenderName  string     `gorm:"type:text" json:"senderName,omitempty"`
	SenderEmail string     `gorm:"type:text" json:"senderEmail,omitempty"`
	Type        string     `gorm:"type:text;not null;default:general" json:"type"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Status      string     `gorm:"type:text" json:"status,omitempty"`
	IsRead      bool       `gorm:"not null;default:false" json:"isRead"`
	CreatedAt   time.Time  `gorm:"not null;index:idx_messages_user_created,priority:2" json:"createdAt"`
}

func (Message) TableName() string { return "messages" }
