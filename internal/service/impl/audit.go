package impl

import (
	"context"
	"log/slog"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/jsonb"
	"ghonsi-proof/internal/observability/middleware"

	"github.com/google/uuid"
)

const (
	AuditSignIn       = "auth.sign_in"
	AuditLinkWallet   = "account.link_wallet"
	AuditLinkEmail    = "account.link_email"
	AuditUserDisabled = "admin.user_disabled"
	AuditUserEnabled  = "admin.user_enabled"
	AuditProofStatus  = "admin.proof_status"
)

type auditStore interface {
	Record(ctx context.Context, entry *domain.AuditLog) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AuditLog, error)
}

// recordAudit is best effort: a failed write is logged and dropped.
func recordAudit(ctx context.Context, st auditStore, entry domain.AuditLog, meta map[string]any) {
	if len(meta) > 0 {
		raw, err := jsonb.From(meta)
		if err == nil {
			entry.Metadata = raw
		}
	}
	if err := st.Record(ctx, &entry); err != nil {
		slog.Warn("audit record failed", append(middleware.LogAttrs(ctx), "action", entry.Action, "error", err)...)
	}
}
