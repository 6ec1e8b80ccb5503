package domain

import "time"

type PasswordCredential struct {
	ID          CredentialID `gorm:"type:uuid;primaryKey"`
	UserID      UserID       `gorm:"type:uuid;uniqueIndex:ux_pwd_user"`
	Algo        string       `gorm:"type:text;not null"`
	Hash        []byte       `gorm:"type:bytea;not null"`
	Salt        []byte       `gorm:"type:bytea;not null"`
	ParamsJSON  []byte       `gorm:"type:jsonb;not null"`
	PasswordVer int          `gorm:"not null;default:1"`
	CreatedAt   time.Time    `gorm:"not null"`
	UpdatedAt   time.Time    `gorm:"not null"`
}

func (PasswordCredential) TableName() string { return "password_credentials" }

func (p *PasswordCredential) GetAlgo() string       { return p.Algo }
func (p *PasswordCredential) GetHash() []byte       { return p.Hash }
func (p *PasswordCredential) GetSalt() []byte       { return p.Salt }
func (p *PasswordCredential) GetParamsJSON() []byte { return p.ParamsJSON }
func (p *PasswordCredential) GetPasswordVer() int   { return p.PasswordVer }
