package usecase

import (
	"context"
	"fmt"

	"skynet-vpn-store/internal/domain"
	"skynet-vpn-store/internal/domain/model"
	"skynet-vpn-store/internal/domain/ports/repository"
)

var _ CatalogUseCase = (*catalogUC)(nil)

type CatalogUseCase interface {
	// Products lists catalog entries that are currently for sale.
	Products(ctx context.Context) ([]*model.VPNProduct, error)
	Product(ctx context.Context, id string) (*model.VPNProduct, error)
	PlansFor(ctx context.Context, productID string) ([]*model.SubscriptionPlan, error)
	AddProduct(ctx context.Context, name, description string, features []string, imageURL string) (*model.VPNProduct, error)
	AddPlan(ctx context.Context, productID string, duration model.Duration, priceKES int) (*model.SubscriptionPlan, error)
}

type catalogUC struct {
	products repository.ProductRepository
	plans    repository.PlanRepository
}

func NewCatalogUseCase(products repository.ProductRepository, plans repository.PlanRepository) *catalogUC {
	return &catalogUC{products: products, plans: plans}
}

func (u *catalogUC) Products(ctx context.Context) ([]*model.VPNProduct, error) {
	return u.products.ListAvailable(ctx, nil)
}

func (u *catalogUC) Product(ctx context.Context, id string) (*model.VPNProduct, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.products.FindByID(ctx, nil, id)
}

func (u *catalogUC) PlansFor(ctx context.Context, productID string) ([]*model.SubscriptionPlan, error) {
	if productID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.plans.ListByProduct(ctx, nil, productID)
}

func (u *catalogUC) AddProduct(ctx context.Context, name, description string, features []string, imageURL string) (*model.VPNProduct, error) {
	p, err := model.NewVPNProduct("", name, description, features, imageURL)
	if err != nil {
		return nil, err
	}
	if err := u.products.Save(ctx, nil, p); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}
	return p, nil
}

func (u *catalogUC) AddPlan(ctx context.Context, productID string, duration model.Duration, priceKES int) (*model.SubscriptionPlan, error) {
	if !duration.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := u.products.FindByID(ctx, nil, productID); err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if priceKES <= 0 {
		priceKES = model.DefaultPriceKES[duration]
	}
	p, err := model.NewSubscriptionPlan("", productID, duration, priceKES)
	if err != nil {
		return nil, err
	}
	if err := u.plans.Save(ctx, nil, p); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	return p, nil
}
