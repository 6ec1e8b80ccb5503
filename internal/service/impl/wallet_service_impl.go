package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"
	"ghonsi-proof/internal/observability/middleware"
	"ghonsi-proof/internal/store"
	"ghonsi-proof/internal/validate"
	"ghonsi-proof/internal/walletauth"

	"github.com/google/uuid"
)

type WalletServiceImpl struct {
	store  *store.Store
	window time.Duration
	Now    func() time.Time
}

func NewWalletService(st *store.Store, window time.Duration) *WalletServiceImpl {
	return &WalletServiceImpl{store: st, window: window}
}

func (w *WalletServiceImpl) now() time.Time {
	if w.Now != nil {
		return w.Now().UTC()
	}
	return time.Now().UTC()
}

func (w *WalletServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.UserWallet, error) {
	return w.store.Wallets().ListByUser(ctx, userID)
}

// Bind adds a wallet proven by a signed sign-in message. The first wallet of a
// user becomes primary.
func (w *WalletServiceImpl) Bind(ctx context.Context, userID uuid.UUID, r dto.WalletSignInRequest) (*domain.UserWallet, error) {
	proof := walletauth.Proof{PublicKey: strings.TrimSpace(r.PublicKey), Message: r.Message, Signature: r.Signature}
	if err := validate.SolanaAddress(proof.PublicKey); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	signedAt, err := walletauth.Verify(proof, w.now(), w.window)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	var out *domain.UserWallet
	err = w.store.WithTx(ctx, func(tx *store.Store) error {
		err := tx.WalletLogins().Record(ctx, &domain.WalletLogin{
			WalletAddress: proof.PublicKey,
			Signature:     walletauth.SignatureKey(proof),
			SignedAt:      signedAt,
			CreatedAt:     w.now(),
		})
		if errors.Is(err, store.ErrDuplicate) {
			return domain.ErrSignatureReused
		}
		if err != nil {
			return err
		}

		if existing, err := tx.Wallets().FindByAddress(ctx, proof.PublicKey); err == nil {
			if existing.UserID == userID {
				return fmt.Errorf("%w: wallet already bound", ErrConflict)
			}
			return fmt.Errorf("%w: wallet is bound to another account", ErrConflict)
		} else if !errors.Is(err, store.ErrRecordNotFound) {
			return err
		}
		if owner, err := tx.Users().GetByWallet(ctx, proof.PublicKey); err == nil && owner.ID != userID {
			return fmt.Errorf("%w: wallet is bound to another account", ErrConflict)
		}

		n, err := tx.Wallets().Count(ctx, userID)
		if err != nil {
			return err
		}
		uw := &domain.UserWallet{
			UserID:        userID,
			WalletAddress: proof.PublicKey,
			WalletName:    strings.TrimSpace(r.WalletName),
			IsPrimary:     n == 0,
			IsVerified:    true,
			AddedAt:       w.now(),
		}
		if err := tx.Wallets().Create(ctx, uw); err != nil {
			return err
		}
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return notFound(err, "user")
		}
		if u.WalletAddress == nil {
			if err := tx.Users().SetWallet(ctx, userID, proof.PublicKey, r.WalletType); err != nil {
				return err
			}
		}
		out = uw
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("wallet bound", append(middleware.LogAttrs(ctx), "user_id", userID, "wallet", out.WalletAddress, "primary", out.IsPrimary)...)
	return out, nil
}

func (w *WalletServiceImpl) SetPrimary(ctx context.Context, userID uuid.UUID, address string) error {
	return w.store.WithTx(ctx, func(tx *store.Store) error {
		return notFound(tx.Wallets().SetPrimary(ctx, userID, address), "wallet")
	})
}

// Unbind removes a wallet. The only wallet cannot be removed; removing the
// primary promotes the oldest remaining one.
func (w *WalletServiceImpl) Unbind(ctx context.Context, userID uuid.UUID, address string) error {
	return w.store.WithTx(ctx, func(tx *store.Store) error {
		uw, err := tx.Wallets().Get(ctx, userID, address)
		if err != nil {
			return notFound(err, "wallet")
		}
		n, err := tx.Wallets().Count(ctx, userID)
		if err != nil {
			return err
		}
		if n <= 1 {
			return domain.ErrLastWallet
		}
		if err := tx.Wallets().Delete(ctx, userID, address); err != nil {
			return err
		}
		rest, err := tx.Wallets().ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		promoted := ""
		for _, r := range rest {
			if r.IsPrimary {
				promoted = r.WalletAddress
			}
		}
		if uw.IsPrimary || promoted == "" {
			promoted = rest[0].WalletAddress
			if err := tx.Wallets().SetPrimary(ctx, userID, promoted); err != nil {
				return err
			}
		}
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u.WalletOrEmpty() == address {
			if err := tx.Users().SetWallet(ctx, userID, promoted, u.WalletType); err != nil {
				return err
			}
		}
		slog.Info("wallet unbound", append(middleware.LogAttrs(ctx), "user_id", userID, "wallet", address, "primary", promoted)...)
		return nil
	})
}
