package repos

import (
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// CartRow is a display line: snapshot fields joined with product/seller names.
// No stock re-validation happens on read.
type CartRow struct {
	UserID      string          `db:"user_id"`
	ListingID   string          `db:"listing_id"`
	ProductID   string          `db:"product_id"`
	ProductName string          `db:"product_name"`
	SellerID    string          `db:"seller_id"`
	SellerName  string          `db:"seller_name"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	Quantity    int             `db:"quantity"`
	Subtotal    decimal.Decimal `db:"subtotal"`
}

func (r *CartRepo) ByUser(userID string) ([]CartRow, error) {
	var out []CartRow
	err := r.db.Select(&out, `
	  SELECT c.user_id,
	         c.listing_id,
	         c.product_id,
	         p.name AS product_name,
	         c.seller_id,
	         s.firstname || ' ' || s.lastname AS seller_name,
	         c.unit_price,
	         c.quantity,
	         c.unit_price * c.quantity AS subtotal
	  FROM cart_items c
	  JOIN products p ON c.product_id = p.id
	  JOIN users s ON c.seller_id = s.id
	  WHERE c.user_id = ?
	  ORDER BY p.name`, userID)
	return out, err
}

// Remove is idempotent; removing an absent line is not an error.
func (r *CartRepo) Remove(userID, listingID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE user_id = ? AND listing_id = ?`, userID, listingID)
	return err
}

func (r *CartRepo) Clear(userID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE user_id = ?`, userID)
	return err
}
