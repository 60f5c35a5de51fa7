package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Store interface {
	Create(ctx context.Context, p *Product) error
	Get(ctx context.Context, id int64) (*Product, error)
	Update(ctx context.Context, p *Product) error
	List(ctx context.Context, f Filter) ([]Product, error)
	// AdjustStock subtracts delta when stock_quantity >= delta, in one step.
	// A negative delta therefore always applies and restores stock.
	AdjustStock(ctx context.Context, id int64, delta int) (bool, error)
}

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const productColumns = `id, name, description, price::text, category, brand, stock_quantity, image_url, active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		p     Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Category, &p.Brand,
		&p.StockQuantity, &p.ImageURL, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("products: bad price %q: %w", price, err)
	}
	p.Price = d
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, p *Product) error {
	return r.DB.QueryRow(ctx, `
		INSERT INTO products(name, description, price, category, brand, stock_quantity, image_url, active)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		p.Name, p.Description, p.Price.String(), p.Category, p.Brand, p.StockQuantity, p.ImageURL, p.Active,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *Repo) Get(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *Repo) Update(ctx context.Context, p *Product) error {
	err := r.DB.QueryRow(ctx, `
		UPDATE products
		SET name=$2, description=$3, price=$4::numeric, category=$5, brand=$6,
		    stock_quantity=$7, image_url=$8, active=$9, updated_at=now()
		WHERE id=$1
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Description, p.Price.String(), p.Category, p.Brand, p.StockQuantity, p.ImageURL, p.Active,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE TRUE`
	args := make([]any, 0, 6)
	where := func(cond string, v any) {
		args = append(args, v)
		q += fmt.Sprintf(" AND "+cond, len(args))
	}
	if f.Category != "" {
		where("category = $%d", f.Category)
	}
	if f.Brand != "" {
		where("brand = $%d", f.Brand)
	}
	if f.NameContains != "" {
		where("strpos(lower(name), lower($%d)) > 0", f.NameContains)
	}
	if f.MinPrice != nil {
		where("price >= $%d::numeric", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		where("price <= $%d::numeric", f.MaxPrice.String())
	}
	if f.ActiveOnly {
		q += " AND active"
	}
	if f.InStockOnly {
		q += " AND stock_quantity > 0"
	}
	q += " ORDER BY id"

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repo) AdjustStock(ctx context.Context, id int64, delta int) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = now()
		WHERE id = $1 AND stock_quantity >= $2`, id, delta)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
