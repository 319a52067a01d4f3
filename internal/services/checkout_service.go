package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

// CheckoutService turns a cart into an order in a single transaction. The
// connection is opened with _txlock=immediate, so the write lock is held from
// BEGIN; the guarded quantity decrement is the backstop.
type CheckoutService struct {
	DB *sqlx.DB
}

func NewCheckoutService(db *sqlx.DB) *CheckoutService {
	return &CheckoutService{DB: db}
}

// checkoutLine joins a cart line with its live listing and product name.
// Pricing uses the listing's current price, not the cart snapshot.
type checkoutLine struct {
	ListingID   string          `db:"listing_id"`
	Quantity    int             `db:"quantity"`
	SellerID    string          `db:"seller_id"`
	ProductID   string          `db:"product_id"`
	Price       decimal.Decimal `db:"price"`
	Available   int             `db:"available"`
	IsActive    bool            `db:"is_active"`
	ProductName string          `db:"product_name"`
}

// Place executes checkout for the user and returns the new order id. On any
// failure nothing is persisted: no order, no decrement, no balance movement,
// and the cart keeps its lines.
func (s *CheckoutService) Place(userID string) (string, error) {
	tx, err := s.DB.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var lines []checkoutLine
	if err := tx.Select(&lines, `
		SELECT c.listing_id,
		       c.quantity,
		       l.seller_id,
		       l.product_id,
		       l.price,
		       l.quantity AS available,
		       l.is_active,
		       p.name AS product_name
		FROM cart_items c
		JOIN listings l ON l.id = c.listing_id
		JOIN products p ON p.id = l.product_id
		WHERE c.user_id = ?
		ORDER BY c.listing_id`, userID); err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", ErrCartEmpty
	}

	var balance decimal.Decimal
	err = tx.Get(&balance, `SELECT balance FROM users WHERE id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}

	total := decimal.Zero
	for _, ln := range lines {
		if !ln.IsActive || ln.Quantity > ln.Available {
			return "", fmt.Errorf("Not enough inventory for %s.", ln.ProductName)
		}
		total = total.Add(ln.Price.Mul(decimal.NewFromInt(int64(ln.Quantity))))
	}
	if balance.LessThan(total) {
		return "", ErrInsufficientBalance
	}

	orderID := uuid.NewString()
	if _, err := tx.Exec(`
		INSERT INTO orders(id, user_id, created_at, status, total_amount)
		VALUES(?,?,CURRENT_TIMESTAMP,?,?)`,
		orderID, userID, domain.OrderPending, total); err != nil {
		return "", err
	}

	sellerTotals := map[string]decimal.Decimal{}
	products := map[string]struct{}{}
	for _, ln := range lines {
		subtotal := ln.Price.Mul(decimal.NewFromInt(int64(ln.Quantity)))
		if _, err := tx.Exec(`
			INSERT INTO order_items(id, order_id, listing_id, seller_id, product_id,
			                        unit_price, quantity, subtotal, fulfillment_status)
			VALUES(?,?,?,?,?,?,?,?,?)`,
			uuid.NewString(), orderID, ln.ListingID, ln.SellerID, ln.ProductID,
			ln.Price, ln.Quantity, subtotal, domain.ItemPlaced); err != nil {
			return "", err
		}

		res, err := tx.Exec(`
			UPDATE listings SET quantity = quantity - ?
			WHERE id = ? AND quantity >= ?`,
			ln.Quantity, ln.ListingID, ln.Quantity)
		if err != nil {
			return "", err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return "", fmt.Errorf("Not enough inventory for %s.", ln.ProductName)
		}

		sellerTotals[ln.SellerID] = sellerTotals[ln.SellerID].Add(subtotal)
		products[ln.ProductID] = struct{}{}
	}

	for productID := range products {
		if err := repos.RefreshAvailability(tx, productID); err != nil {
			return "", err
		}
	}

	// Balance moves are computed in Go and written as absolute values to keep
	// decimal money exact.
	if _, err := tx.Exec(`UPDATE users SET balance = ? WHERE id = ?`,
		balance.Sub(total), userID); err != nil {
		return "", err
	}
	for sellerID, credit := range sellerTotals {
		var sb decimal.Decimal
		if err := tx.Get(&sb, `SELECT balance FROM users WHERE id = ?`, sellerID); err != nil {
			return "", err
		}
		if _, err := tx.Exec(`UPDATE users SET balance = ? WHERE id = ?`,
			sb.Add(credit), sellerID); err != nil {
			return "", err
		}
	}

	if _, err := tx.Exec(`DELETE FROM cart_items WHERE user_id = ?`, userID); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return orderID, nil
}
