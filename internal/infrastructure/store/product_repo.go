package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/rental-marketplace/internal/domain/money"
	"github.com/example/rental-marketplace/internal/domain/product"
)

// ProductRepository implements product persistence on PostgreSQL.
type ProductRepository struct {
	db       *sql.DB
	currency string
}

func NewProductRepository(db *sql.DB, currency string) *ProductRepository {
	return &ProductRepository{db: db, currency: currency}
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var dailyRate sql.NullString
	if !p.DailyRate.IsZero() {
		dailyRate = sql.NullString{String: p.DailyRate.StringFixed(), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (id, shop_id, name, type, price, daily_rate, quantity, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.ShopID, p.Name, string(p.Type), p.Price.StringFixed(), dailyRate, p.Quantity, p.Active)
	if err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}

	for _, c := range p.Components {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO product_components (id, bundle_id, name, quantity, stock_quantity, shared)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			c.ID, p.ID, c.Name, c.Quantity, c.StockQuantity, c.Shared)
		if err != nil {
			return fmt.Errorf("inserting component: %w", err)
		}
	}

	return tx.Commit()
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var dailyRate sql.NullString
	if !p.DailyRate.IsZero() {
		dailyRate = sql.NullString{String: p.DailyRate.StringFixed(), Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, type = $3, price = $4, daily_rate = $5, quantity = $6, active = $7
		WHERE id = $1`,
		p.ID, p.Name, string(p.Type), p.Price.StringFixed(), dailyRate, p.Quantity, p.Active)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return product.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*product.Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, shop_id, name, type, price, daily_rate, quantity, active
		FROM products WHERE id = $1`, id)

	p, err := r.scanProduct(row)
	if err != nil {
		return nil, err
	}

	if p.IsBundle() {
		components, err := r.loadComponents(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Components = components
	}

	return p, nil
}

func (r *ProductRepository) ListByShop(ctx context.Context, shopID string) ([]*product.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, shop_id, name, type, price, daily_rate, quantity, active
		FROM products WHERE shop_id = $1 ORDER BY name`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*product.Product
	for rows.Next() {
		p, err := r.scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range products {
		if !p.IsBundle() {
			continue
		}
		components, err := r.loadComponents(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Components = components
	}

	return products, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ProductRepository) scanProduct(row rowScanner) (*product.Product, error) {
	var (
		p         product.Product
		typ       string
		price     string
		dailyRate sql.NullString
	)
	err := row.Scan(&p.ID, &p.ShopID, &p.Name, &typ, &price, &dailyRate, &p.Quantity, &p.Active)
	if err == sql.ErrNoRows {
		return nil, product.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Type = product.Type(typ)
	if p.Price, err = money.FromString(price, r.currency); err != nil {
		return nil, fmt.Errorf("reading price for product %s: %w", p.ID, err)
	}
	if dailyRate.Valid {
		if p.DailyRate, err = money.FromString(dailyRate.String, r.currency); err != nil {
			return nil, fmt.Errorf("reading daily rate for product %s: %w", p.ID, err)
		}
	} else {
		p.DailyRate = money.Zero(r.currency)
	}

	return &p, nil
}

func (r *ProductRepository) loadComponents(ctx context.Context, bundleID string) ([]product.Component, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, bundle_id, name, quantity, stock_quantity, shared
		FROM product_components WHERE bundle_id = $1 ORDER BY name`, bundleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var components []product.Component
	for rows.Next() {
		var c product.Component
		if err := rows.Scan(&c.ID, &c.BundleID, &c.Name, &c.Quantity, &c.StockQuantity, &c.Shared); err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	return components, rows.Err()
}
