package impl

import (
	"context"
	"errors"
	"testing"
	"time"

	"ghonsi-proof/internal/domain"
)

func TestWalletBindAndUnbind(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, st, "hal@example.com")
	other := newTestUser(t, st, "ivy@example.com")
	svc := NewWalletService(st, time.Minute)

	first, second := newWallet(t), newWallet(t)
	w1, err := svc.Bind(ctx, u.ID, signIn(t, first, time.Now()))
	if err != nil {
		t.Fatalf("bind first: %v", err)
	}
	if !w1.IsPrimary {
		t.Fatalf("first wallet should be primary")
	}
	if err := svc.Unbind(ctx, u.ID, w1.WalletAddress); !errors.Is(err, domain.ErrLastWallet) {
		t.Fatalf("expected last wallet protection, got %v", err)
	}
	w2, err := svc.Bind(ctx, u.ID, signIn(t, second, time.Now()))
	if err != nil {
		t.Fatalf("bind second: %v", err)
	}
	if w2.IsPrimary {
		t.Fatalf("second wallet should not be primary")
	}
	if _, err := svc.Bind(ctx, other.ID, signIn(t, second, time.Now().Add(time.Second))); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict binding another user's wallet, got %v", err)
	}

	if err := svc.Unbind(ctx, u.ID, w1.WalletAddress); err != nil {
		t.Fatalf("unbind primary: %v", err)
	}
	wallets, err := svc.List(ctx, u.ID)
	if err != nil || len(wallets) != 1 || !wallets[0].IsPrimary || wallets[0].WalletAddress != w2.WalletAddress {
		t.Fatalf("expected the remaining wallet to be primary, got %+v %v", wallets, err)
	}
	user, _ := st.Users().GetByID(ctx, u.ID)
	if user.WalletOrEmpty() != w2.WalletAddress {
		t.Fatalf("user wallet not moved to the promoted wallet: %q", user.WalletOrEmpty())
	}
}

func TestWalletBindRejectsReplay(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, st, "jo@example.com")
	svc := NewWalletService(st, time.Minute)
	req := signIn(t, newWallet(t), time.Now())
	if _, err := svc.Bind(ctx, u.ID, req); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if _, err := svc.Bind(ctx, u.ID, req); !errors.Is(err, domain.ErrSignatureReused) {
		t.Fatalf("expected replay rejection, got %v", err)
	}
}
