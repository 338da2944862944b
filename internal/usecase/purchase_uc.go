package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"skynet-vpn-store/internal/domain"
	"skynet-vpn-store/internal/domain/model"
	"skynet-vpn-store/internal/domain/ports/adapter"
	"skynet-vpn-store/internal/domain/ports/repository"
	"skynet-vpn-store/internal/infra/metrics"
)

// Compile-time check
var _ PurchaseUseCase = (*purchaseUC)(nil)

// Gateway callback statuses. Anything else is acknowledged and ignored.
const (
	CallbackComplete = "COMPLETE"
	CallbackFailed   = "FAILED"
)

// PaymentCallback is the inbound notification from the payment gateway. It
// carries no purchase id; the metadata triple is the only correlation key.
type PaymentCallback struct {
	Status    string
	PaymentID string
	Metadata  adapter.CheckoutMetadata
}

type CheckoutInput struct {
	UserID      string
	ProductID   string
	PlanID      string
	Amount      int
	PhoneNumber string
	Email       string
	Currency    string
}

type PurchaseUseCase interface {
	// Create inserts a pending ledger row without contacting the gateway.
	Create(ctx context.Context, userID, productID, planID string) (*model.Purchase, error)
	// Checkout creates a gateway checkout session and, only on success,
	// records a pending ledger row. Returns the URL to redirect the payer to.
	Checkout(ctx context.Context, in CheckoutInput) (*model.Purchase, string, error)
	// HandleCallback reconciles an asynchronous gateway notification against
	// the ledger. Safe under duplicate and late deliveries.
	HandleCallback(ctx context.Context, cb PaymentCallback) error
	// ListForUser returns the account's ledger rows, most recent first.
	ListForUser(ctx context.Context, userID string) ([]*model.Purchase, error)
}

type purchaseUC struct {
	purchases repository.PurchaseRepository
	plans     repository.PlanRepository
	products  repository.ProductRepository
	gateway   adapter.PaymentGateway
	log       *zerolog.Logger
}

func NewPurchaseUseCase(
	purchases repository.PurchaseRepository,
	plans repository.PlanRepository,
	products repository.ProductRepository,
	gateway adapter.PaymentGateway,
	logger *zerolog.Logger,
) *purchaseUC {
	l := logger.With().Str("component", "PurchaseUC").Logger()
	return &purchaseUC{purchases: purchases, plans: plans, products: products, gateway: gateway, log: &l}
}

func (u *purchaseUC) Create(ctx context.Context, userID, productID, planID string) (*model.Purchase, error) {
	if userID == "" || productID == "" || planID == "" {
		return nil, domain.ErrInvalidArgument
	}
	plan, err := u.resolvePlan(ctx, productID, planID)
	if err != nil {
		return nil, err
	}

	p, err := model.NewPurchase(uuid.NewString(), userID, plan)
	if err != nil {
		return nil, err
	}
	if err := u.purchases.Save(ctx, nil, p); err != nil {
		return nil, fmt.Errorf("save purchase: %w", err)
	}
	metrics.IncPurchase("direct")
	return p, nil
}

func (u *purchaseUC) Checkout(ctx context.Context, in CheckoutInput) (*model.Purchase, string, error) {
	if in.UserID == "" || in.ProductID == "" || in.PlanID == "" || in.Amount <= 0 {
		return nil, "", domain.ErrInvalidArgument
	}
	if in.Currency == "" {
		in.Currency = "KES"
	}

	plan, err := u.resolvePlan(ctx, in.ProductID, in.PlanID)
	if err != nil {
		return nil, "", err
	}

	// The gateway call comes first: a failed checkout-session creation must
	// leave no ledger row behind.
	session, err := u.gateway.CreateCheckout(ctx, adapter.CheckoutRequest{
		Amount:      in.Amount,
		Currency:    in.Currency,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		Metadata: adapter.CheckoutMetadata{
			UserID:    in.UserID,
			ProductID: in.ProductID,
			PlanID:    in.PlanID,
		},
	})
	if err != nil {
		metrics.IncCheckout("error")
		return nil, "", err
	}

	p, err := model.NewPurchase(uuid.NewString(), in.UserID, plan)
	if err != nil {
		return nil, "", err
	}
	if session.PaymentID != "" {
		p.PaymentID = &session.PaymentID
	}
	if err := u.purchases.Save(ctx, nil, p); err != nil {
		return nil, "", fmt.Errorf("save purchase: %w", err)
	}

	metrics.IncCheckout("ok")
	metrics.IncPurchase("checkout")
	u.log.Info().Str("purchase_id", p.ID).Str("payment_id", session.PaymentID).Msg("checkout session created")
	return p, session.CheckoutURL, nil
}

func (u *purchaseUC) HandleCallback(ctx context.Context, cb PaymentCallback) error {
	md := cb.Metadata
	if md.UserID == "" || md.ProductID == "" || md.PlanID == "" {
		metrics.IncCallback(cb.Status, "rejected")
		return fmt.Errorf("%w: incomplete callback metadata", domain.ErrInvalidArgument)
	}

	var next model.PurchaseStatus
	switch cb.Status {
	case CallbackComplete:
		next = model.PurchaseStatusActive
	case CallbackFailed:
		next = model.PurchaseStatusFailed
	default:
		// Intermediate gateway states are acknowledged without touching the ledger.
		u.log.Debug().Str("status", cb.Status).Msg("ignoring callback status")
		return nil
	}

	var paymentID *string
	if cb.PaymentID != "" {
		paymentID = &cb.PaymentID
	}

	applied, err := u.purchases.SettleIfPending(ctx, nil, md.UserID, md.ProductID, md.PlanID, next, paymentID)
	if err != nil {
		metrics.IncCallback(cb.Status, "error")
		return fmt.Errorf("settle purchase: %w", err)
	}
	if !applied {
		// Duplicate or late delivery; the pending precondition already
		// consumed the row. Deliberately not an error.
		metrics.IncCallback(cb.Status, "noop")
		u.log.Debug().
			Str("user_id", md.UserID).
			Str("vpn_id", md.ProductID).
			Str("plan_id", md.PlanID).
			Msg("callback matched no pending purchase")
		return nil
	}

	metrics.IncCallback(cb.Status, "applied")
	u.log.Info().
		Str("user_id", md.UserID).
		Str("plan_id", md.PlanID).
		Str("status", string(next)).
		Msg("purchase settled")
	return nil
}

// resolvePlan loads the plan, checks it belongs to the product, and checks
// the product is still for sale.
func (u *purchaseUC) resolvePlan(ctx context.Context, productID, planID string) (*model.SubscriptionPlan, error) {
	plan, err := u.plans.FindByID(ctx, nil, planID)
	if err != nil {
		return nil, fmt.Errorf("find plan: %w", err)
	}
	if plan.ProductID != productID {
		return nil, domain.ErrInvalidArgument
	}
	product, err := u.products.FindByID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if !product.IsAvailable {
		return nil, fmt.Errorf("%w: product is not for sale", domain.ErrInvalidArgument)
	}
	return plan, nil
}

func (u *purchaseUC) ListForUser(ctx context.Context, userID string) ([]*model.Purchase, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.purchases.ListByUser(ctx, nil, userID)
}
