package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"skynet-vpn-store/internal/domain"
	"skynet-vpn-store/internal/domain/model"
	"skynet-vpn-store/internal/domain/ports/repository"
)

var _ repository.ProductRepository = (*productRepo)(nil)

type productRepo struct{ pool *pgxpool.Pool }

func NewProductRepo(pool *pgxpool.Pool) *productRepo {
	return &productRepo{pool: pool}
}

const productColumns = `id, name, description, features, image_url, is_available, created_at`

func (r *productRepo) Save(ctx context.Context, tx repository.Tx, p *model.VPNProduct) error {
	const q = `
INSERT INTO vpn_products (id, name, description, features, image_url, is_available, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  name=$2, description=$3, features=$4, image_url=$5, is_available=$6;`

	// features is JSONB
	features, err := json.Marshal(p.Features)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	_, err = execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.Description, features, p.ImageURL, p.IsAvailable, p.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.VPNProduct, error) {
	q := `SELECT ` + productColumns + ` FROM vpn_products WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanProduct(row)
}

func (r *productRepo) ListAvailable(ctx context.Context, tx repository.Tx) ([]*model.VPNProduct, error) {
	q := `SELECT ` + productColumns + ` FROM vpn_products WHERE is_available ORDER BY name;`
	return r.list(ctx, tx, q)
}

func (r *productRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.VPNProduct, error) {
	q := `SELECT ` + productColumns + ` FROM vpn_products ORDER BY name;`
	return r.list(ctx, tx, q)
}

func (r *productRepo) list(ctx context.Context, tx repository.Tx, q string) ([]*model.VPNProduct, error) {
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.VPNProduct
	for rows.Next() {
		p := new(model.VPNProduct)
		var features []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &features, &p.ImageURL, &p.IsAvailable, &p.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if len(features) > 0 {
			_ = json.Unmarshal(features, &p.Features)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row) (*model.VPNProduct, error) {
	p := &model.VPNProduct{}
	var features []byte
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &features, &p.ImageURL, &p.IsAvailable, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if len(features) > 0 {
		_ = json.Unmarshal(features, &p.Features)
	}
	return p, nil
}
