package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"skynet-vpn-store/internal/domain"
	"skynet-vpn-store/internal/domain/model"
	"skynet-vpn-store/internal/domain/ports/adapter"
	"skynet-vpn-store/internal/domain/ports/repository"
	"skynet-vpn-store/internal/infra/metrics"
)

var _ FulfillmentUseCase = (*fulfillmentUC)(nil)

const artifactContentType = "application/octet-stream"

type FulfillmentUseCase interface {
	// AttachConfig uploads a configuration artifact for a pending purchase and
	// activates it in the same step. A purchase that is no longer pending is
	// left untouched and ErrNotFound is returned.
	AttachConfig(ctx context.Context, purchaseID, filename string, data []byte) (*model.Purchase, error)
	// ReplaceConfig uploads a fresh artifact for the account's most recent
	// entitled purchase, overwriting its config reference.
	ReplaceConfig(ctx context.Context, userID, filename string, data []byte) (*model.Purchase, error)
}

type fulfillmentUC struct {
	purchases repository.PurchaseRepository
	store     adapter.ArtifactStore
	log       *zerolog.Logger
	now       func() time.Time
}

func NewFulfillmentUseCase(purchases repository.PurchaseRepository, store adapter.ArtifactStore, logger *zerolog.Logger) *fulfillmentUC {
	l := logger.With().Str("component", "FulfillmentUC").Logger()
	return &fulfillmentUC{purchases: purchases, store: store, log: &l, now: time.Now}
}

func (u *fulfillmentUC) AttachConfig(ctx context.Context, purchaseID, filename string, data []byte) (*model.Purchase, error) {
	if purchaseID == "" || filename == "" {
		return nil, domain.ErrInvalidArgument
	}
	if len(data) == 0 {
		return nil, domain.ErrEmptyArtifact
	}

	key := fmt.Sprintf("%s_%s", purchaseID, filepath.Base(filename))
	url, err := u.store.Upload(ctx, key, data, artifactContentType)
	if err != nil {
		metrics.IncConfigUpload("attach", "error")
		return nil, fmt.Errorf("upload config: %w", err)
	}

	applied, err := u.purchases.AttachConfigIfPending(ctx, nil, purchaseID, url)
	if err != nil {
		metrics.IncConfigUpload("attach", "error")
		return nil, fmt.Errorf("attach config: %w", err)
	}
	if !applied {
		// Already settled, or unknown id. The uploaded object stays orphaned
		// in the bucket; it is never referenced by the ledger.
		metrics.IncConfigUpload("attach", "stale")
		return nil, domain.ErrNotFound
	}

	metrics.IncConfigUpload("attach", "ok")
	u.log.Info().Str("purchase_id", purchaseID).Str("key", key).Msg("config attached, purchase activated")
	return u.purchases.FindByID(ctx, nil, purchaseID)
}

func (u *fulfillmentUC) ReplaceConfig(ctx context.Context, userID, filename string, data []byte) (*model.Purchase, error) {
	if userID == "" || filename == "" {
		return nil, domain.ErrInvalidArgument
	}
	if len(data) == 0 {
		return nil, domain.ErrEmptyArtifact
	}

	entitled, err := u.purchases.FindEntitledByUser(ctx, nil, userID, u.now())
	if err != nil {
		return nil, fmt.Errorf("find entitled purchases: %w", err)
	}
	if len(entitled) == 0 {
		return nil, domain.ErrNoEntitledPurchase
	}
	target := entitled[0]

	// A distinct key per replacement so the previous object is not clobbered
	// while clients may still be downloading it.
	key := fmt.Sprintf("%s_%s_%s", target.ID, ulid.Make().String(), filepath.Base(filename))
	url, err := u.store.Upload(ctx, key, data, artifactContentType)
	if err != nil {
		metrics.IncConfigUpload("replace", "error")
		return nil, fmt.Errorf("upload config: %w", err)
	}

	applied, err := u.purchases.ReplaceConfig(ctx, nil, target.ID, url)
	if err != nil {
		metrics.IncConfigUpload("replace", "error")
		return nil, fmt.Errorf("replace config: %w", err)
	}
	if !applied {
		metrics.IncConfigUpload("replace", "stale")
		return nil, domain.ErrNoEntitledPurchase
	}

	metrics.IncConfigUpload("replace", "ok")
	u.log.Info().Str("user_id", userID).Str("purchase_id", target.ID).Msg("config replaced")
	return u.purchases.FindByID(ctx, nil, target.ID)
}
