package domain

import (
	"time"

	"ghonsi-proof/internal/jsonb"

	"github.com/google/uuid"
)

type Profile struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            UserID     `gorm:"type:uuid;uniqueIndex:ux_profiles_user" json:"userId"`
	UID               string     `gorm:"type:text;not null;index" json:"uid"`
	DisplayName       string     `gorm:"type:text;not null" json:"displayName"`
	ProfessionalTitle string     `gorm:"type:text" json:"professionalTitle,omitempty"`
	Bio               string     `gorm:"type:text" json:"bio,omitempty"`
	Location          string     `gorm:"type:text" json:"location,omitempty"`
	AvatarURL         string     `gorm:"type:text" json:"avatarUrl,omitempty"`
	Email             string     `gorm:"type:text" json:"email,omitempty"`
	SocialLinks       jsonb.JSON `gorm:"type:jsonb" json:"socialLinks,omitempty"`
	CreatedAt         time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt         time.Time  `gorm:"not null" json:"updatedAt"`
}

func (Profile) TableName() string { return "profiles" }
