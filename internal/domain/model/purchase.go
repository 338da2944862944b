package model

import (
	"time"

	"skynet-vpn-store/internal/domain"

	"github.com/google/uuid"
)

type PurchaseStatus string

const (
	PurchaseStatusPending PurchaseStatus = "pending" // created, payment not yet confirmed
	PurchaseStatusActive  PurchaseStatus = "active"  // payment confirmed or config attached
	PurchaseStatusFailed  PurchaseStatus = "failed"  // payment failed
)

// Purchase is one ledger row: a plan selection and its payment/fulfillment
// state. There is no stored "expired" status; expiry is derived at read time
// from ExpiresAt (see Entitled).
type Purchase struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	ProductID     string         `json:"vpn_id"`
	PlanID        string         `json:"plan_id"`
	Status        PurchaseStatus `json:"status"`
	ConfigFileURL *string        `json:"config_file_url,omitempty"`
	PaymentID     *string        `json:"payment_id,omitempty"`
	PurchasedAt   time.Time      `json:"purchased_at"`
	ExpiresAt     *time.Time     `json:"expires_at"`
}

// NewPurchase creates a pending ledger row. The expiry is fixed at creation
// time from the plan duration, independent of when payment completes.
func NewPurchase(id, userID string, plan *SubscriptionPlan) (*Purchase, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if userID == "" || plan.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now().UTC()
	expires := plan.Duration.ExpiryFrom(now)
	return &Purchase{
		ID:          id,
		UserID:      userID,
		ProductID:   plan.ProductID,
		PlanID:      plan.ID,
		Status:      PurchaseStatusPending,
		PurchasedAt: now,
		ExpiresAt:   &expires,
	}, nil
}

// Entitled reports whether this purchase currently grants access to its
// configuration artifact: status is active and the expiry is strictly in the
// future. Every screen and workflow must use this predicate; never duplicate
// the comparison.
func (p *Purchase) Entitled(now time.Time) bool {
	if p == nil || p.Status != PurchaseStatusActive {
		return false
	}
	return p.ExpiresAt != nil && p.ExpiresAt.After(now)
}

// PurchaseDetail is a purchase joined with the catalog and buyer columns the
// admin dashboard needs. Read-only.
type PurchaseDetail struct {
	Purchase
	ProductName string   `json:"product_name"`
	Duration    Duration `json:"duration"`
	PriceKES    int      `json:"price_kes"`
	Email       string   `json:"email"`
	HWID        string   `json:"hwid"`
}
