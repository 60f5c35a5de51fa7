package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ListFilter narrows List; nil fields are ignored.
type ListFilter struct {
	UserID *int64
	Status *Status
	From   *time.Time
	To     *time.Time
}

type Store interface {
	// Create persists header and items as one record and fills ids and timestamps.
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id int64) (*Order, error)
	// Update overwrites the mutable header fields and refreshes UpdatedAt.
	Update(ctx context.Context, o *Order) error
	List(ctx context.Context, f ListFilter) ([]Order, error)
}

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const orderColumns = `id, user_id, total_amount::text, status, shipping_address, billing_address, payment_method, notes, order_date, updated_at`

func (r *Repo) Create(ctx context.Context, o *Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO orders(user_id, total_amount, status, shipping_address, billing_address, payment_method, notes)
		VALUES ($1, $2::numeric, $3, $4, $5, $6, $7)
		RETURNING id, order_date, updated_at`,
		o.UserID, o.TotalAmount.String(), string(o.Status), o.ShippingAddress, o.BillingAddress, o.PaymentMethod, o.Notes,
	).Scan(&o.ID, &o.OrderDate, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("orders: insert header: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items(order_id, product_id, product_name, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric)
			RETURNING id`,
			o.ID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice.String(), it.TotalPrice.String(),
		).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("orders: insert item %d: %w", it.ProductID, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) Get(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	items, err := r.itemsFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	o.Items = items[id]
	return o, nil
}

func (r *Repo) Update(ctx context.Context, o *Order) error {
	err := r.DB.QueryRow(ctx, `
		UPDATE orders
		SET status=$2, shipping_address=$3, billing_address=$4, payment_method=$5, notes=$6, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		o.ID, string(o.Status), o.ShippingAddress, o.BillingAddress, o.PaymentMethod, o.Notes,
	).Scan(&o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOrderNotFound
	}
	return err
}

func (r *Repo) List(ctx context.Context, f ListFilter) ([]Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE TRUE`
	args := make([]any, 0, 4)
	where := func(cond string, v any) {
		args = append(args, v)
		q += fmt.Sprintf(" AND "+cond, len(args))
	}
	if f.UserID != nil {
		where("user_id = $%d", *f.UserID)
	}
	if f.Status != nil {
		where("status = $%d", string(*f.Status))
	}
	if f.From != nil {
		where("order_date >= $%d", *f.From)
	}
	if f.To != nil {
		where("order_date <= $%d", *f.To)
	}
	q += " ORDER BY id"

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Order, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func (r *Repo) itemsFor(ctx context.Context, orderIDs []int64) (map[int64][]OrderItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT order_id, id, product_id, product_name, quantity, unit_price::text, total_price::text
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			orderID      int64
			it           OrderItem
			unit, totals string
		)
		if err := rows.Scan(&orderID, &it.ID, &it.ProductID, &it.ProductName, &it.Quantity, &unit, &totals); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(unit); err != nil {
			return nil, fmt.Errorf("orders: bad unit price %q: %w", unit, err)
		}
		if it.TotalPrice, err = decimal.NewFromString(totals); err != nil {
			return nil, fmt.Errorf("orders: bad total price %q: %w", totals, err)
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o      Order
		total  string
		status string
	)
	if err := row.Scan(&o.ID, &o.UserID, &total, &status, &o.ShippingAddress, &o.BillingAddress,
		&o.PaymentMethod, &o.Notes, &o.OrderDate, &o.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("orders: bad total %q: %w", total, err)
	}
	o.TotalAmount = d
	o.Status = Status(status)
	return &o, nil
}
