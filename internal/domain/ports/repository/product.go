package repository

import (
	"context"

	"skynet-vpn-store/internal/domain/model"
)

type ProductRepository interface {
	Save(ctx context.Context, tx Tx, p *model.VPNProduct) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.VPNProduct, error)
	ListAvailable(ctx context.Context, tx Tx) ([]*model.VPNProduct, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.VPNProduct, error)
}
