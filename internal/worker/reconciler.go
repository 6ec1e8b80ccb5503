// Package worker holds the background jobs run by the minter: the mint queue
// consumer and the chain status reconciler.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ghonsi-proof/internal/chain"
	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/observability/metrics"
	"ghonsi-proof/internal/store"

	"github.com/robfig/cron"
)

const (
	DefaultReconcileSpec = "@every 1m"
	// DefaultDropAfter is well past a blockhash's lifetime; a transaction the
	// cluster still does not know by then will never land.
	DefaultDropAfter = 5 * time.Minute
)

const errExpired = "transaction expired before confirmation"

// Reconciler moves submitted proofs to confirmed, finalized or failed based on
// the signature status reported by the cluster. Each run reads one page per
// chain status and the next run continues after it, so rows that never change
// cannot starve newer ones.
type Reconciler struct {
	Store  *store.Store
	Reader chain.StatusReader
	// Batch caps the rows read per chain status in one run.
	Batch     int
	DropAfter time.Duration
	Timeout   time.Duration
	Now       func() time.Time

	mu      sync.Mutex
	cursors map[string]store.ChainCursor
	cron    *cron.Cron
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// Start schedules Reconcile on spec.
func (r *Reconciler) Start(spec string) error {
	if spec == "" {
		spec = DefaultReconcileSpec
	}
	r.cron = cron.New()
	if err := r.cron.AddFunc(spec, r.run); err != nil {
		return err
	}
	r.cron.Start()
	slog.Info("reconciler scheduled", "spec", spec, "batch", r.Batch)
	return nil
}

func (r *Reconciler) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

func (r *Reconciler) run() {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	n, err := r.Reconcile(ctx)
	if err != nil {
		slog.Error("reconcile failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("reconciled proofs", "updated", n)
	}
}

// Reconcile checks one page of submitted and one page of confirmed proofs and
// returns how many changed state.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch := r.Batch
	if batch <= 0 {
		batch = 100
	}
	var pending []domain.Proof
	for _, status := range []string{domain.ChainStatusSubmitted, domain.ChainStatusConfirmed} {
		page, err := r.page(ctx, status, batch)
		if err != nil {
			return 0, err
		}
		pending = append(pending, page...)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	sigs := make([]string, 0, len(pending))
	bySig := make(map[string]domain.Proof, len(pending))
	for _, p := range pending {
		if p.BlockchainTx == "" {
			continue
		}
		sigs = append(sigs, p.BlockchainTx)
		bySig[p.BlockchainTx] = p
	}
	statuses, err := r.Reader.SignatureStatuses(ctx, sigs)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, st := range statuses {
		p, ok := bySig[st.Signature]
		if !ok {
			continue
		}
		next, errMsg := nextChainStatus(st)
		if next == "" && r.expired(p, st) {
			next, errMsg = domain.ChainStatusFailed, errExpired
		}
		if next == "" || next == p.ChainStatus {
			continue
		}
		var confirmedAt *time.Time
		if next == domain.ChainStatusConfirmed || next == domain.ChainStatusFinalized {
			at := r.now()
			if p.ConfirmedAt != nil {
				at = *p.ConfirmedAt
			}
			confirmedAt = &at
		}
		if err := r.Store.Proofs().SetChainStatus(ctx, p.ID, next, errMsg, confirmedAt); err != nil {
			slog.Warn("chain status not saved", "proof_id", p.ID, "status", next, "error", err)
			continue
		}
		metrics.ChainReconciledTotal.WithLabelValues(next).Inc()
		updated++
	}
	return updated, nil
}

// page reads the next rows in status and moves its cursor. A short page means
// the end was reached and the next run starts over.
func (r *Reconciler) page(ctx context.Context, status string, limit int) ([]domain.Proof, error) {
	if r.cursors == nil {
		r.cursors = map[string]store.ChainCursor{}
	}
	rows, err := r.Store.Proofs().ListByChainStatusAfter(ctx, status, r.cursors[status], limit)
	if err != nil {
		return nil, err
	}
	if len(rows) < limit {
		delete(r.cursors, status)
		return rows, nil
	}
	last := rows[len(rows)-1]
	cur := store.ChainCursor{ID: last.ID}
	if last.SubmittedAt != nil {
		cur.SubmittedAt = *last.SubmittedAt
	}
	r.cursors[status] = cur
	return rows, nil
}

// expired reports a submitted transaction the cluster has never seen for
// longer than DropAfter.
func (r *Reconciler) expired(p domain.Proof, st chain.SignatureStatus) bool {
	if p.ChainStatus != domain.ChainStatusSubmitted || st.Status != chain.SigStatusUnknown || p.SubmittedAt == nil {
		return false
	}
	after := r.DropAfter
	if after <= 0 {
		after = DefaultDropAfter
	}
	return r.now().Sub(*p.SubmittedAt) > after
}

// nextChainStatus maps a signature status to a proof chain status. Empty means
// no change yet.
func nextChainStatus(st chain.SignatureStatus) (status, errMsg string) {
	switch st.Status {
	case chain.SigStatusFinalized:
		return domain.ChainStatusFinalized, ""
	case chain.SigStatusConfirmed:
		return domain.ChainStatusConfirmed, ""
	case chain.SigStatusFailed:
		return domain.ChainStatusFailed, st.Err
	}
	return "", ""
}
