package repository

import (
	"context"

	"skynet-vpn-store/internal/domain/model"
)

type ProfileRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Profile) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Profile, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.Profile, error)
	UpdateHWID(ctx context.Context, tx Tx, id, hwid string) error
	SetAdmin(ctx context.Context, tx Tx, id string, isAdmin bool) error
	ListAll(ctx context.Context, tx Tx) ([]*model.Profile, error)
}
