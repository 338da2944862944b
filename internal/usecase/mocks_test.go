//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"skynet-vpn-store/internal/domain"
	"skynet-vpn-store/internal/domain/model"
	"skynet-vpn-store/internal/domain/ports/adapter"
	"skynet-vpn-store/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- In-memory repositories ---

type memProfileRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Profile
	saveErr error
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{store: make(map[string]*model.Profile)}
}

func (m *memProfileRepo) Save(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memProfileRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProfileRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memProfileRepo) UpdateHWID(ctx context.Context, tx repository.Tx, id, hwid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.HWID = hwid
	return nil
}

func (m *memProfileRepo) SetAdmin(ctx context.Context, tx repository.Tx, id string, isAdmin bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.IsAdmin = isAdmin
	return nil
}

func (m *memProfileRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Profile, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type memProductRepo struct {
	mu    sync.RWMutex
	store map[string]*model.VPNProduct
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{store: make(map[string]*model.VPNProduct)}
}

func (m *memProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.VPNProduct) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.VPNProduct, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProductRepo) ListAvailable(ctx context.Context, tx repository.Tx) ([]*model.VPNProduct, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.VPNProduct
	for _, p := range m.store {
		if p.IsAvailable {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memProductRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.VPNProduct, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.VPNProduct, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type memPlanRepo struct {
	mu    sync.RWMutex
	store map[string]*model.SubscriptionPlan
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{store: make(map[string]*model.SubscriptionPlan)}
}

func (m *memPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlanRepo) ListByProduct(ctx context.Context, tx repository.Tx, productID string) ([]*model.SubscriptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.SubscriptionPlan
	for _, p := range m.store {
		if p.ProductID == productID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.SubscriptionPlan, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// memPurchaseRepo mirrors the conditional-update semantics of the SQL
// implementation, including the most-recent-pending match.
type memPurchaseRepo struct {
	mu        sync.RWMutex
	store     map[string]*model.Purchase
	details   map[string]*model.PurchaseDetail
	saveErr   error
	settleErr error
}

func newMemPurchaseRepo() *memPurchaseRepo {
	return &memPurchaseRepo{
		store:   make(map[string]*model.Purchase),
		details: make(map[string]*model.PurchaseDetail),
	}
}

func (m *memPurchaseRepo) Save(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPurchaseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPurchaseRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Purchase
	for _, p := range m.store {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchasedAt.After(out[j].PurchasedAt) })
	return out, nil
}

// setDetail registers the joined row returned by ListDetails for a purchase.
func (m *memPurchaseRepo) setDetail(p *model.Purchase, productName string, duration model.Duration, priceKES int, email, hwid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details[p.ID] = &model.PurchaseDetail{
		Purchase:    *p,
		ProductName: productName,
		Duration:    duration,
		PriceKES:    priceKES,
		Email:       email,
		HWID:        hwid,
	}
}

func (m *memPurchaseRepo) ListDetails(ctx context.Context, tx repository.Tx) ([]*model.PurchaseDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.PurchaseDetail, 0, len(m.details))
	for id, d := range m.details {
		cp := *d
		if p, ok := m.store[id]; ok {
			cp.Purchase = *p
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchasedAt.After(out[j].PurchasedAt) })
	return out, nil
}

func (m *memPurchaseRepo) SettleIfPending(ctx context.Context, tx repository.Tx, userID, productID, planID string, status model.PurchaseStatus, paymentID *string) (bool, error) {
	if m.settleErr != nil {
		return false, m.settleErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var target *model.Purchase
	for _, p := range m.store {
		if p.UserID != userID || p.ProductID != productID || p.PlanID != planID {
			continue
		}
		if p.Status != model.PurchaseStatusPending {
			continue
		}
		if target == nil || p.PurchasedAt.After(target.PurchasedAt) {
			target = p
		}
	}
	if target == nil {
		return false, nil
	}
	target.Status = status
	if paymentID != nil {
		target.PaymentID = paymentID
	}
	return true, nil
}

func (m *memPurchaseRepo) AttachConfigIfPending(ctx context.Context, tx repository.Tx, id, configURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok || p.Status != model.PurchaseStatusPending {
		return false, nil
	}
	p.ConfigFileURL = &configURL
	p.Status = model.PurchaseStatusActive
	return true, nil
}

func (m *memPurchaseRepo) ReplaceConfig(ctx context.Context, tx repository.Tx, id, configURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok || p.Status != model.PurchaseStatusActive {
		return false, nil
	}
	p.ConfigFileURL = &configURL
	return true, nil
}

func (m *memPurchaseRepo) FindEntitledByUser(ctx context.Context, tx repository.Tx, userID string, now time.Time) ([]*model.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Purchase
	for _, p := range m.store {
		if p.UserID == userID && p.Entitled(now) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchasedAt.After(out[j].PurchasedAt) })
	return out, nil
}

func (m *memPurchaseRepo) CountDecayed(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.store {
		if p.Status == model.PurchaseStatusActive && p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
			n++
		}
	}
	return n, nil
}

// --- Mock payment gateway ---

type mockGateway struct {
	mu                 sync.Mutex
	CreateCheckoutFunc func(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error)
	calls              []adapter.CheckoutRequest
}

func (g *mockGateway) Name() string { return "mock" }

func (g *mockGateway) CreateCheckout(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	g.mu.Unlock()
	if g.CreateCheckoutFunc != nil {
		return g.CreateCheckoutFunc(ctx, req)
	}
	return &adapter.CheckoutSession{PaymentID: "pay-1", CheckoutURL: "https://checkout.example/pay-1"}, nil
}

// --- Mock artifact store ---

type memArtifactStore struct {
	mu        sync.Mutex
	uploads   map[string][]byte
	uploadErr error
}

func newMemArtifactStore() *memArtifactStore {
	return &memArtifactStore{uploads: make(map[string][]byte)}
}

func (s *memArtifactStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[key] = data
	return fmt.Sprintf("https://store.example/configs/%s", key), nil
}
