package store

import (
	"context"
	"database/sql"

	"github.com/example/rental-marketplace/internal/domain/shop"
)

// ShopRepository implements shop persistence on PostgreSQL.
type ShopRepository struct {
	db *sql.DB
}

func NewShopRepository(db *sql.DB) *ShopRepository {
	return &ShopRepository{db: db}
}

func (r *ShopRepository) Create(ctx context.Context, s *shop.Shop) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shops (id, owner_id, name, active, payment_account_id, onboarding_complete)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.OwnerID, s.Name, s.Active, nullString(s.PaymentAccountID), s.OnboardingComplete)
	return err
}

func (r *ShopRepository) Update(ctx context.Context, s *shop.Shop) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE shops
		SET name = $2, active = $3, payment_account_id = $4, onboarding_complete = $5
		WHERE id = $1`,
		s.ID, s.Name, s.Active, nullString(s.PaymentAccountID), s.OnboardingComplete)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return shop.ErrNotFound
	}
	return nil
}

func (r *ShopRepository) FindByID(ctx context.Context, id string) (*shop.Shop, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *ShopRepository) FindByOwner(ctx context.Context, ownerID string) (*shop.Shop, error) {
	return r.findOne(ctx, `WHERE owner_id = $1`, ownerID)
}

func (r *ShopRepository) findOne(ctx context.Context, where string, arg any) (*shop.Shop, error) {
	var (
		s         shop.Shop
		accountID sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, active, payment_account_id, onboarding_complete
		FROM shops `+where, arg).
		Scan(&s.ID, &s.OwnerID, &s.Name, &s.Active, &accountID, &s.OnboardingComplete)
	if err == sql.ErrNoRows {
		return nil, shop.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.PaymentAccountID = accountID.String
	return &s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
