package chain

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const (
	SigStatusUnknown   = "unknown"
	SigStatusProcessed = "processed"
	SigStatusConfirmed = "confirmed"
	SigStatusFinalized = "finalized"
	SigStatusFailed    = "failed"
)

type SignatureStatus struct {
	Signature string
	Status    string
	Err       string
}

// Verified reports a confirmed or finalized transaction.
func (s SignatureStatus) Verified() bool {
	return s.Status == SigStatusConfirmed || s.Status == SigStatusFinalized
}

// StatusReader is implemented by Client; the reconciler depends on it.
type StatusReader interface {
	SignatureStatuses(ctx context.Context, sigs []string) ([]SignatureStatus, error)
}

// SignatureStatuses looks up all signatures in one call, searching history.
func (c *Client) SignatureStatuses(ctx context.Context, sigs []string) ([]SignatureStatus, error) {
	parsed := make([]solana.Signature, 0, len(sigs))
	for _, s := range sigs {
		sig, err := solana.SignatureFromBase58(s)
		if err != nil {
			return nil, fmt.Errorf("signature %q: %w", s, err)
		}
		parsed = append(parsed, sig)
	}
	res, err := c.rpc.GetSignatureStatuses(ctx, true, parsed...)
	if err != nil {
		return nil, err
	}
	out := make([]SignatureStatus, len(sigs))
	for i, s := range sigs {
		out[i] = SignatureStatus{Signature: s, Status: SigStatusUnknown}
		if res == nil || i >= len(res.Value) || res.Value[i] == nil {
			continue
		}
		out[i] = statusFromRPC(s, res.Value[i])
	}
	return out, nil
}

func statusFromRPC(sig string, v *rpc.SignatureStatusesResult) SignatureStatus {
	out := SignatureStatus{Signature: sig}
	if v.Err != nil {
		out.Status = SigStatusFailed
		out.Err = fmt.Sprint(v.Err)
		return out
	}
	switch v.ConfirmationStatus {
	case rpc.ConfirmationStatusFinalized:
		out.Status = SigStatusFinalized
	case rpc.ConfirmationStatusConfirmed:
		out.Status = SigStatusConfirmed
	case rpc.ConfirmationStatusProcessed:
		out.Status = SigStatusProcessed
	default:
		out.Status = SigStatusUnknown
	}
	return out
}
