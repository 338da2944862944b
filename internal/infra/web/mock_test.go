//go:build !integration

package web

import (
	"context"

	"github.com/rs/zerolog"

	"skynet-vpn-store/internal/domain"
	"skynet-vpn-store/internal/domain/model"
	"skynet-vpn-store/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- Mock use cases with overridable behavior per test ---

type mockAccountUC struct {
	RegisterFunc     func(ctx context.Context, email, password, username, hwid string) (*model.Profile, error)
	AuthenticateFunc func(ctx context.Context, email, password string) (*model.Profile, error)
	GetFunc          func(ctx context.Context, id string) (*model.Profile, error)
	UpdateHWIDFunc   func(ctx context.Context, userID, hwid string) error
	IsAdminFunc      func(ctx context.Context, userID string) (bool, error)
	GrantAdminFunc   func(ctx context.Context, email string) error
	ListFunc         func(ctx context.Context) ([]*model.Profile, error)
}

func (m *mockAccountUC) Register(ctx context.Context, email, password, username, hwid string) (*model.Profile, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password, username, hwid)
	}
	return &model.Profile{ID: "user-1", Email: email}, nil
}

func (m *mockAccountUC) Authenticate(ctx context.Context, email, password string) (*model.Profile, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, email, password)
	}
	return &model.Profile{ID: "user-1", Email: email}, nil
}

func (m *mockAccountUC) Get(ctx context.Context, id string) (*model.Profile, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &model.Profile{ID: id, Email: "user@example.com"}, nil
}

func (m *mockAccountUC) UpdateHWID(ctx context.Context, userID, hwid string) error {
	if m.UpdateHWIDFunc != nil {
		return m.UpdateHWIDFunc(ctx, userID, hwid)
	}
	return nil
}

func (m *mockAccountUC) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if m.IsAdminFunc != nil {
		return m.IsAdminFunc(ctx, userID)
	}
	return false, nil
}

func (m *mockAccountUC) GrantAdmin(ctx context.Context, email string) error {
	if m.GrantAdminFunc != nil {
		return m.GrantAdminFunc(ctx, email)
	}
	return nil
}

func (m *mockAccountUC) List(ctx context.Context) ([]*model.Profile, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

type mockCatalogUC struct {
	ProductsFunc   func(ctx context.Context) ([]*model.VPNProduct, error)
	ProductFunc    func(ctx context.Context, id string) (*model.VPNProduct, error)
	PlansForFunc   func(ctx context.Context, productID string) ([]*model.SubscriptionPlan, error)
	AddProductFunc func(ctx context.Context, name, description string, features []string, imageURL string) (*model.VPNProduct, error)
	AddPlanFunc    func(ctx context.Context, productID string, duration model.Duration, priceKES int) (*model.SubscriptionPlan, error)
}

func (m *mockCatalogUC) Products(ctx context.Context) ([]*model.VPNProduct, error) {
	if m.ProductsFunc != nil {
		return m.ProductsFunc(ctx)
	}
	return nil, nil
}

func (m *mockCatalogUC) Product(ctx context.Context, id string) (*model.VPNProduct, error) {
	if m.ProductFunc != nil {
		return m.ProductFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalogUC) PlansFor(ctx context.Context, productID string) ([]*model.SubscriptionPlan, error) {
	if m.PlansForFunc != nil {
		return m.PlansForFunc(ctx, productID)
	}
	return nil, nil
}

func (m *mockCatalogUC) AddProduct(ctx context.Context, name, description string, features []string, imageURL string) (*model.VPNProduct, error) {
	if m.AddProductFunc != nil {
		return m.AddProductFunc(ctx, name, description, features, imageURL)
	}
	return &model.VPNProduct{ID: "vpn-1", Name: name}, nil
}

func (m *mockCatalogUC) AddPlan(ctx context.Context, productID string, duration model.Duration, priceKES int) (*model.SubscriptionPlan, error) {
	if m.AddPlanFunc != nil {
		return m.AddPlanFunc(ctx, productID, duration, priceKES)
	}
	return &model.SubscriptionPlan{ID: "plan-1", ProductID: productID, Duration: duration, PriceKES: priceKES}, nil
}

type mockPurchaseUC struct {
	CreateFunc         func(ctx context.Context, userID, productID, planID string) (*model.Purchase, error)
	CheckoutFunc       func(ctx context.Context, in usecase.CheckoutInput) (*model.Purchase, string, error)
	HandleCallbackFunc func(ctx context.Context, cb usecase.PaymentCallback) error
	ListForUserFunc    func(ctx context.Context, userID string) ([]*model.Purchase, error)

	callbacks []usecase.PaymentCallback
}

func (m *mockPurchaseUC) Create(ctx context.Context, userID, productID, planID string) (*model.Purchase, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, productID, planID)
	}
	return &model.Purchase{ID: "p-1", UserID: userID, Status: model.PurchaseStatusPending}, nil
}

func (m *mockPurchaseUC) Checkout(ctx context.Context, in usecase.CheckoutInput) (*model.Purchase, string, error) {
	if m.CheckoutFunc != nil {
		return m.CheckoutFunc(ctx, in)
	}
	return &model.Purchase{ID: "p-1", UserID: in.UserID, Status: model.PurchaseStatusPending}, "https://checkout.example/p-1", nil
}

func (m *mockPurchaseUC) HandleCallback(ctx context.Context, cb usecase.PaymentCallback) error {
	m.callbacks = append(m.callbacks, cb)
	if m.HandleCallbackFunc != nil {
		return m.HandleCallbackFunc(ctx, cb)
	}
	return nil
}

func (m *mockPurchaseUC) ListForUser(ctx context.Context, userID string) ([]*model.Purchase, error) {
	if m.ListForUserFunc != nil {
		return m.ListForUserFunc(ctx, userID)
	}
	return nil, nil
}

type mockFulfillmentUC struct {
	AttachConfigFunc  func(ctx context.Context, purchaseID, filename string, data []byte) (*model.Purchase, error)
	ReplaceConfigFunc func(ctx context.Context, userID, filename string, data []byte) (*model.Purchase, error)
}

func (m *mockFulfillmentUC) AttachConfig(ctx context.Context, purchaseID, filename string, data []byte) (*model.Purchase, error) {
	if m.AttachConfigFunc != nil {
		return m.AttachConfigFunc(ctx, purchaseID, filename, data)
	}
	url := "https://store.example/configs/" + purchaseID
	return &model.Purchase{ID: purchaseID, Status: model.PurchaseStatusActive, ConfigFileURL: &url}, nil
}

func (m *mockFulfillmentUC) ReplaceConfig(ctx context.Context, userID, filename string, data []byte) (*model.Purchase, error) {
	if m.ReplaceConfigFunc != nil {
		return m.ReplaceConfigFunc(ctx, userID, filename, data)
	}
	return &model.Purchase{ID: "p-1", Status: model.PurchaseStatusActive}, nil
}

type mockStatsUC struct {
	OverviewFunc func(ctx context.Context) (*usecase.Overview, error)
	LedgerFunc   func(ctx context.Context) ([]*model.PurchaseDetail, error)
}

func (m *mockStatsUC) Overview(ctx context.Context) (*usecase.Overview, error) {
	if m.OverviewFunc != nil {
		return m.OverviewFunc(ctx)
	}
	return &usecase.Overview{}, nil
}

func (m *mockStatsUC) Ledger(ctx context.Context) ([]*model.PurchaseDetail, error) {
	if m.LedgerFunc != nil {
		return m.LedgerFunc(ctx)
	}
	return nil, nil
}
