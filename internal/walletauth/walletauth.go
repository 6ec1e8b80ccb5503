// Package walletauth builds and checks the off-chain sign-in message a Solana
// wallet signs to prove ownership of an address.
package walletauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

var (
	ErrMalformedMessage = errors.New("malformed sign-in message")
	ErrWalletMismatch   = errors.New("message wallet does not match public key")
	ErrExpired          = errors.New("sign-in message expired")
	ErrBadSignature     = errors.New("invalid wallet signature")
)

const (
	header = "Sign in to Ghonsi Proof"
	footer = "This request will not trigger a blockchain transaction or cost any gas fees."

	// DefaultWindow bounds how old (or how far in the future) a signed timestamp may be.
	DefaultWindow = 5 * time.Minute
)

// BuildMessage renders the text a wallet signs at sign-in time.
func BuildMessage(wallet string, at time.Time) string {
	return fmt.Sprintf("%s\n\nTimestamp: %d\nWallet: %s\n\n%s", header, at.UnixMilli(), wallet, footer)
}

// ParseMessage extracts the wallet and timestamp from a sign-in message.
func ParseMessage(msg string) (wallet string, at time.Time, err error) {
	if !strings.HasPrefix(msg, header) {
		return "", time.Time{}, ErrMalformedMessage
	}
	var ts string
	for _, line := range strings.Split(msg, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Timestamp:"):
			ts = strings.TrimSpace(strings.TrimPrefix(line, "Timestamp:"))
		case strings.HasPrefix(line, "Wallet:"):
			wallet = strings.TrimSpace(strings.TrimPrefix(line, "Wallet:"))
		}
	}
	if ts == "" || wallet == "" {
		return "", time.Time{}, ErrMalformedMessage
	}
	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", time.Time{}, ErrMalformedMessage
	}
	return wallet, time.UnixMilli(ms).UTC(), nil
}

// DecodeSignature accepts a base58 string or a JSON byte array (what browser
// wallets hand back from signMessage).
func DecodeSignature(raw json.RawMessage) ([]byte, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return base58.Decode(s)
	}
	var arr []int
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, ErrBadSignature
	}
	out := make([]byte, len(arr))
	for i, v := range arr {
		if v < 0 || v > 255 {
			return nil, ErrBadSignature
		}
		out[i] = byte(v)
	}
	return out, nil
}

// Proof is what the client submits after signing.
type Proof struct {
	PublicKey string          `json:"publicKey"`
	Message   string          `json:"message"`
	Signature json.RawMessage `json:"signature"`
}

// Verify checks message shape, freshness and signature, returning the signed
// timestamp.
func Verify(p Proof, now time.Time, window time.Duration) (time.Time, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	pub, err := solana.PublicKeyFromBase58(p.PublicKey)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: public key", ErrMalformedMessage)
	}
	wallet, at, err := ParseMessage(p.Message)
	if err != nil {
		return time.Time{}, err
	}
	if wallet != pub.String() {
		return time.Time{}, ErrWalletMismatch
	}
	if d := now.Sub(at); d > window || d < -window {
		return time.Time{}, ErrExpired
	}
	raw, err := DecodeSignature(p.Signature)
	if err != nil || len(raw) != solana.SignatureLength {
		return time.Time{}, ErrBadSignature
	}
	sig := solana.SignatureFromBytes(raw)
	if !sig.Verify(pub, []byte(p.Message)) {
		return time.Time{}, ErrBadSignature
	}
	return at, nil
}

// SignatureKey renders the signature in base58 for replay bookkeeping.
func SignatureKey(p Proof) string {
	raw, err := DecodeSignature(p.Signature)
	if err != nil {
		return ""
	}
	return base58.Encode(raw)
}
