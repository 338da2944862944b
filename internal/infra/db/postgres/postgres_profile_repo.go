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

var _ repository.ProfileRepository = (*profileRepo)(nil)

type profileRepo struct{ pool *pgxpool.Pool }

func NewProfileRepo(pool *pgxpool.Pool) *profileRepo {
	return &profileRepo{pool: pool}
}

const profileColumns = `id, email, username, hwid, password_hash, is_admin, created_at, updated_at`

func (r *profileRepo) Save(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	const q = `
INSERT INTO profiles (id, email, username, hwid, password_hash, is_admin, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  email=$2, username=$3, hwid=$4, password_hash=$5, is_admin=$6, updated_at=$8;`

	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Email, p.Username, p.HWID, p.PasswordHash, p.IsAdmin, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *profileRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE id=$1;`
	return r.scanOne(ctx, tx, q, id)
}

func (r *profileRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE email=$1 LIMIT 1;`
	return r.scanOne(ctx, tx, q, email)
}

func (r *profileRepo) scanOne(ctx context.Context, tx repository.Tx, q string, arg interface{}) (*model.Profile, error) {
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}
	p := &model.Profile{}
	if err := row.Scan(&p.ID, &p.Email, &p.Username, &p.HWID, &p.PasswordHash, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *profileRepo) UpdateHWID(ctx context.Context, tx repository.Tx, id, hwid string) error {
	const q = `UPDATE profiles SET hwid=$2, updated_at=NOW() WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, hwid)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *profileRepo) SetAdmin(ctx context.Context, tx repository.Tx, id string, isAdmin bool) error {
	const q = `UPDATE profiles SET is_admin=$2, updated_at=NOW() WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, isAdmin)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *profileRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Profile
	for rows.Next() {
		p := new(model.Profile)
		if err := rows.Scan(&p.ID, &p.Email, &p.Username, &p.HWID, &p.PasswordHash, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
