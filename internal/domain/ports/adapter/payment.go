package adapter

import "context"

// CheckoutMetadata is echoed back verbatim by the gateway in its callback and
// is the only correlation between a checkout session and a ledger row.
type CheckoutMetadata struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"vpn_id"`
	PlanID    string `json:"plan_id"`
}

type CheckoutRequest struct {
	Amount      int
	Currency    string
	Email       string
	PhoneNumber string
	Comment     string
	Metadata    CheckoutMetadata
}

type CheckoutSession struct {
	PaymentID   string
	CheckoutURL string
}

// PaymentGateway creates hosted-checkout sessions with the mobile-money
// processor. Confirmation arrives out-of-band via the callback endpoint.
type PaymentGateway interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}
