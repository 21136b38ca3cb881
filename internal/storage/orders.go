package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrder inserts a pending purchase order and returns its ID.
// No balance is reserved at creation; the debit happens at completion.
func (s *Storage) CreateOrder(userID int64, kind ProductKind, productID, amount string, price decimal.Decimal) (int64, error) {
	if kind != ProductGame && kind != ProductApp {
		return 0, fmt.Errorf("%w: unknown product kind %q", ErrValidation, kind)
	}
	if !price.IsPositive() {
		return 0, fmt.Errorf("%w: price must be positive", ErrValidation)
	}

	res, err := s.db.Exec(
		`INSERT INTO orders (user_id, product_type, product_id, amount, price, created_at, status)
		 VALUES (?, ?, ?, ?, ?, ?, 'pending')`,
		userID, kind, productID, amount, price.String(), time.Now().Unix(),
	)
	if err != nil {
		return 0, mapErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetOrder returns an order by ID
func (s *Storage) GetOrder(orderID int64) (*Order, error) {
	row := s.db.QueryRow(
		`SELECT order_id, user_id, product_type, product_id, amount, price, created_at, status
		 FROM orders WHERE order_id = ?`,
		orderID,
	)

	var o Order
	var price string
	var createdAt int64

	err := row.Scan(&o.ID, &o.UserID, &o.ProductType, &o.ProductID, &o.Amount, &price, &createdAt, &o.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapErr(err)
	}

	if o.Price, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	o.CreatedAt = time.Unix(createdAt, 0)

	return &o, nil
}

// ListOrders returns all orders for a user, newest first
func (s *Storage) ListOrders(userID int64) ([]Order, error) {
	rows, err := s.db.Query(
		`SELECT order_id, user_id, product_type, product_id, amount, price, created_at, status
		 FROM orders WHERE user_id = ? ORDER BY order_id DESC`,
		userID,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		var price string
		var createdAt int64

		if err := rows.Scan(&o.ID, &o.UserID, &o.ProductType, &o.ProductID, &o.Amount, &price, &createdAt, &o.Status); err != nil {
			return nil, err
		}
		if o.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		o.CreatedAt = time.Unix(createdAt, 0)
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// ResolveOrder moves a pending order to completed or rejected. Completion
// debits the user's balance for the order price in the same unit of work;
// insufficient funds roll the whole resolution back. Rejection changes no
// balance. Terminal orders fail with ErrAlreadyTerminal.
func (s *Storage) ResolveOrder(orderID int64, outcome Status) error {
	if outcome != StatusCompleted && outcome != StatusRejected {
		return fmt.Errorf("%w: outcome must be completed or rejected", ErrValidation)
	}

	tx, err := s.begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var userID int64
	var price string
	var status Status
	err = tx.QueryRow(
		`SELECT user_id, price, status FROM orders WHERE order_id = ?`, orderID,
	).Scan(&userID, &price, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return mapErr(err)
	}
	if status.Terminal() {
		return ErrAlreadyTerminal
	}

	if _, err := tx.Exec(`UPDATE orders SET status = ? WHERE order_id = ?`, outcome, orderID); err != nil {
		return mapErr(err)
	}

	if outcome == StatusCompleted {
		debit, err := decimal.NewFromString(price)
		if err != nil {
			return err
		}
		if _, err := adjustBalanceTx(tx, userID, debit.Neg(), "purchase"); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return mapErr(err)
	}
	return nil
}
