package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"skynet-vpn-store/internal/domain"
	"skynet-vpn-store/internal/domain/model"
	"skynet-vpn-store/internal/domain/ports/repository"
)

var _ repository.PurchaseRepository = (*purchaseRepo)(nil)

type purchaseRepo struct{ pool *pgxpool.Pool }

func NewPurchaseRepo(pool *pgxpool.Pool) *purchaseRepo {
	return &purchaseRepo{pool: pool}
}

const purchaseColumns = `id, user_id, vpn_id, plan_id, status, config_file_url, payment_id, purchased_at, expires_at`

func (r *purchaseRepo) Save(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	const q = `
INSERT INTO purchases (id, user_id, vpn_id, plan_id, status, config_file_url, payment_id, purchased_at, expires_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`

	if p.PurchasedAt.IsZero() {
		p.PurchasedAt = time.Now().UTC()
	}
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.UserID, p.ProductID, p.PlanID, p.Status, p.ConfigFileURL, p.PaymentID, p.PurchasedAt, p.ExpiresAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *purchaseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Purchase, error) {
	q := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPurchase(row)
}

func (r *purchaseRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Purchase, error) {
	q := `SELECT ` + purchaseColumns + ` FROM purchases WHERE user_id=$1 ORDER BY purchased_at DESC;`
	return r.list(ctx, tx, q, userID)
}

// SettleIfPending is the payment-callback transition. One conditional UPDATE:
// the precondition (status='pending') is what makes duplicate deliveries
// inert, so this must never become a read-then-write.
func (r *purchaseRepo) SettleIfPending(ctx context.Context, tx repository.Tx, userID, productID, planID string, status model.PurchaseStatus, paymentID *string) (bool, error) {
	const q = `
UPDATE purchases
   SET status = $4,
       payment_id = COALESCE($5, payment_id)
 WHERE id = (
       SELECT id FROM purchases
        WHERE user_id=$1 AND vpn_id=$2 AND plan_id=$3 AND status='pending'
        ORDER BY purchased_at DESC
        LIMIT 1)
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, userID, productID, planID, string(status), paymentID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *purchaseRepo) AttachConfigIfPending(ctx context.Context, tx repository.Tx, id, configURL string) (bool, error) {
	const q = `
UPDATE purchases
   SET config_file_url = $2,
       status = 'active'
 WHERE id = $1
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, configURL)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *purchaseRepo) ReplaceConfig(ctx context.Context, tx repository.Tx, id, configURL string) (bool, error) {
	const q = `
UPDATE purchases
   SET config_file_url = $2
 WHERE id = $1
   AND status = 'active';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, configURL)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *purchaseRepo) FindEntitledByUser(ctx context.Context, tx repository.Tx, userID string, now time.Time) ([]*model.Purchase, error) {
	q := `SELECT ` + purchaseColumns + `
  FROM purchases
 WHERE user_id=$1 AND status='active' AND expires_at > $2
 ORDER BY purchased_at DESC;`
	return r.list(ctx, tx, q, userID, now)
}

func (r *purchaseRepo) CountDecayed(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM purchases WHERE status='active' AND expires_at IS NOT NULL AND expires_at <= $1;`
	row, err := pickRow(ctx, r.pool, tx, q, now)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *purchaseRepo) ListDetails(ctx context.Context, tx repository.Tx) ([]*model.PurchaseDetail, error) {
	const q = `
SELECT pu.id, pu.user_id, pu.vpn_id, pu.plan_id, pu.status, pu.config_file_url, pu.payment_id, pu.purchased_at, pu.expires_at,
       vp.name, sp.duration, sp.price, pr.email, COALESCE(pr.hwid, '')
  FROM purchases pu
  JOIN vpn_products vp ON vp.id = pu.vpn_id
  JOIN subscription_plans sp ON sp.id = pu.plan_id
  JOIN profiles pr ON pr.id = pu.user_id
 ORDER BY pu.purchased_at DESC;`

	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PurchaseDetail
	for rows.Next() {
		d := new(model.PurchaseDetail)
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.ProductID, &d.PlanID, &d.Status, &d.ConfigFileURL, &d.PaymentID, &d.PurchasedAt, &d.ExpiresAt,
			&d.ProductName, &d.Duration, &d.PriceKES, &d.Email, &d.HWID,
		); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *purchaseRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Purchase, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Purchase
	for rows.Next() {
		p := new(model.Purchase)
		if err := rows.Scan(&p.ID, &p.UserID, &p.ProductID, &p.PlanID, &p.Status, &p.ConfigFileURL, &p.PaymentID, &p.PurchasedAt, &p.ExpiresAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPurchase(row pgx.Row) (*model.Purchase, error) {
	p := &model.Purchase{}
	if err := row.Scan(&p.ID, &p.UserID, &p.ProductID, &p.PlanID, &p.Status, &p.ConfigFileURL, &p.PaymentID, &p.PurchasedAt, &p.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
