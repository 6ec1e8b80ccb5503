package walletauth

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
)

func signed(t *testing.T, key solana.PrivateKey, at time.Time) Proof {
	t.Helper()
	msg := BuildMessage(key.PublicKey().String(), at)
	sig, err := key.Sign([]byte(msg))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	raw, _ := json.Marshal(sig.String())
	return Proof{PublicKey: key.PublicKey().String(), Message: msg, Signature: raw}
}

func TestMessageRoundTrip(t *testing.T) {
	at := time.UnixMilli(1700000000123).UTC()
	msg := BuildMessage("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", at)
	wallet, got, err := ParseMessage(msg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if wallet != "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin" || !got.Equal(at) {
		t.Fatalf("round trip mismatch: %s %v", wallet, got)
	}
	if _, _, err := ParseMessage("hello"); !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("expected malformed, got %v", err)
	}
}

func TestVerify(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	now := time.Now()
	p := signed(t, key, now)
	if _, err := Verify(p, now, 0); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// JSON byte-array signatures are accepted too.
	raw, _ := DecodeSignature(p.Signature)
	ints := make([]int, len(raw))
	for i, b := range raw {
		ints[i] = int(b)
	}
	p.Signature, _ = json.Marshal(ints)
	if _, err := Verify(p, now, 0); err != nil {
		t.Fatalf("verify byte array: %v", err)
	}

	other, _ := solana.NewRandomPrivateKey()
	forged := signed(t, other, now)
	forged.PublicKey = key.PublicKey().String()
	if _, err := Verify(forged, now, 0); !errors.Is(err, ErrWalletMismatch) {
		t.Fatalf("expected wallet mismatch, got %v", err)
	}

	tampered := signed(t, key, now)
	tampered.Message += " "
	if _, err := Verify(tampered, now, 0); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected bad signature, got %v", err)
	}

	old := signed(t, key, now.Add(-10*time.Minute))
	if _, err := Verify(old, now, 5*time.Minute); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
}
