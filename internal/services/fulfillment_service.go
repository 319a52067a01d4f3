package services

import (
	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

// FulfillmentService applies seller-driven status transitions to order items
// and keeps the parent order's derived status in step, all in one transaction.
type FulfillmentService struct {
	DB     *sqlx.DB
	Orders *repos.OrderRepo
}

func NewFulfillmentService(db *sqlx.DB, orders *repos.OrderRepo) *FulfillmentService {
	return &FulfillmentService{DB: db, Orders: orders}
}

// UpdateItemStatus moves one order item to the given status. The write is
// scoped to the owning seller; a miss (wrong id or another seller's item)
// is indistinguishable from absence.
func (s *FulfillmentService) UpdateItemStatus(sellerID, itemID, status string) error {
	st, ok := domain.ParseItemStatus(status)
	if !ok {
		return ErrInvalidStatus
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE order_items
		SET fulfillment_status = ?,
		    fulfilled_at = CASE WHEN ? = ? THEN CURRENT_TIMESTAMP ELSE NULL END
		WHERE id = ? AND seller_id = ?`,
		st, st, domain.ItemDelivered, itemID, sellerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}

	var orderID string
	if err := tx.Get(&orderID, `SELECT order_id FROM order_items WHERE id = ?`, itemID); err != nil {
		return err
	}

	var counts struct {
		Total     int `db:"total"`
		Delivered int `db:"delivered"`
		Moving    int `db:"moving"`
	}
	if err := tx.Get(&counts, `
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN fulfillment_status = 'Delivered' THEN 1 ELSE 0 END), 0) AS delivered,
		       COALESCE(SUM(CASE WHEN fulfillment_status IN ('Shipped','Delivered') THEN 1 ELSE 0 END), 0) AS moving
		FROM order_items WHERE order_id = ?`, orderID); err != nil {
		return err
	}

	next := domain.AggregateOrderStatus(counts.Total, counts.Delivered, counts.Moving)
	if _, err := tx.Exec(`UPDATE orders SET status = ? WHERE id = ?`, next, orderID); err != nil {
		return err
	}

	return tx.Commit()
}
