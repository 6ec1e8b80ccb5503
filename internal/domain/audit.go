package domain

import (
	"time"

	"ghonsi-proof/internal/jsonb"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *UserID    `gorm:"type:uuid;index" json:"userId,omitempty"`
	ActorID   *UserID    `gorm:"type:uuid" json:"actorId,omitempty"`
	Action    string     `gorm:"type:text;not null" json:"action"`
	Metadata  jsonb.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	IP        string     `gorm:"type:text" json:"ip,omitempty"`
	UserAgent string     `gorm:"type:text" json:"userAgent,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"createdAt"`
}

func (AuditLog) TableName() string { return "audit_logs" }
