package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dogu-dev/commerce-core/internal/orders"
)

// Archive writes a durable copy of every placed order and status change.
// It sits off the hot path: the in-memory stores stay authoritative and
// callers treat archive errors as log-and-continue.
type Archive struct{ DB *pgxpool.Pool }

func (a *Archive) InsertOrder(ctx context.Context, o orders.Order) error {
	tx, err := a.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, status, total_cents, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, o.ID, o.UserID, string(o.Status), o.TotalCents, o.CreatedAt)
	if err != nil {
		return err
	}

	for _, ln := range o.Lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_lines(order_id, product_id, qty, unit_price_cents)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (order_id, product_id) DO NOTHING
		`, o.ID, ln.ProductID, ln.Qty, ln.UnitPriceCents)
		if err != nil {
			return err
		}
	}

	for _, h := range o.History {
		if err := appendStatusTx(ctx, tx, o.ID, h.Status, h.At); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (a *Archive) AppendStatus(ctx context.Context, orderID string, to orders.Status, at time.Time) error {
	tx, err := a.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := appendStatusTx(ctx, tx, orderID, to, at); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, orderID, string(to)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func appendStatusTx(ctx context.Context, tx pgx.Tx, orderID string, to orders.Status, at time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO order_status_history(order_id, status, at)
		VALUES ($1, $2, $3)
	`, orderID, string(to), at)
	return err
}
