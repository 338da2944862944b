package repository

import (
	"context"
	"time"

	"skynet-vpn-store/internal/domain/model"
)

type PurchaseRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Purchase) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Purchase, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Purchase, error)

	// ListDetails returns every ledger row joined with catalog and buyer
	// columns. Admin analytics aggregate over this set in memory.
	ListDetails(ctx context.Context, tx Tx) ([]*model.PurchaseDetail, error)

	// SettleIfPending applies the payment-callback transition as a single
	// conditional update: the most recent row matching (user, product, plan)
	// that is still pending gets the new status and payment id. Returns false
	// with no error when nothing matched, which callers must treat as a
	// no-op (duplicate or late callback delivery).
	SettleIfPending(ctx context.Context, tx Tx, userID, productID, planID string, status model.PurchaseStatus, paymentID *string) (bool, error)

	// AttachConfigIfPending sets config_file_url and flips status to active
	// together, only while the row is still pending.
	AttachConfigIfPending(ctx context.Context, tx Tx, id, configURL string) (bool, error)

	// ReplaceConfig overwrites config_file_url on an active row without
	// touching its status.
	ReplaceConfig(ctx context.Context, tx Tx, id, configURL string) (bool, error)

	// FindEntitledByUser returns the user's purchases that grant access at
	// the given instant, most recent first.
	FindEntitledByUser(ctx context.Context, tx Tx, userID string, now time.Time) ([]*model.Purchase, error)

	// CountDecayed counts active rows whose expiry has passed. Observability
	// only; rows are never flipped to a stored "expired" status.
	CountDecayed(ctx context.Context, tx Tx, now time.Time) (int, error)
}
