package domain

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&User{},
		&PasswordCredential{},
		&EmailOTP{},
		&WalletLogin{},
		&Session{},
		&Profile{},
		&Proof{},
		&File{},
		&Message{},
		&UserWallet{},
		&VerificationRequest{},
		&AuditLog{},
	}
}
