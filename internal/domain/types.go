package domain

import "github.com/google/uuid"

type UserID = uuid.UUID
type SessionID = uuid.UUID
type ProofID = uuid.UUID
type CredentialID = uuid.UUID

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// SystemSenderID marks messages generated by the platform itself.
const SystemSenderID = "system"
