package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")
	ErrOTPExpired         = errors.New("verification code expired")
	ErrOTPAttempts        = errors.New("too many verification attempts")
	ErrSignatureReused    = errors.New("wallet signature already used")
	ErrLastWallet         = errors.New("cannot unbind the only wallet, add another wallet first")
	ErrInvalidStatus      = errors.New("invalid status")
)
