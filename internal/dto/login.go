package dto

import "encoding/json"

type SendOTPRequest struct {
	Email string `json:"email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// WalletSignInRequest carries a signed sign-in message. Signature is either a
// base58 string or a JSON array of bytes.
type WalletSignInRequest struct {
	PublicKey  string          `json:"publicKey"`
	Message    string          `json:"message"`
	Signature  json.RawMessage `json:"signature"`
	WalletType string          `json:"walletType,omitempty"`
	WalletName string          `json:"walletName,omitempty"`
}

type LinkEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// AuthResponse is returned by every sign-in method.
type AuthResponse struct {
	TokenResponse
	User      UserResponse `json:"user"`
	IsNewUser bool         `json:"isNewUser"`
}
