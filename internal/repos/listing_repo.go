package repos

import (
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
)

type ListingRepo struct{ db *sqlx.DB }

func NewListingRepo(db *sqlx.DB) *ListingRepo { return &ListingRepo{db: db} }

func (r *ListingRepo) Get(id string) (domain.Listing, error) {
	var l domain.Listing
	err := r.db.Get(&l, `
		SELECT id, seller_id, product_id, price, quantity, is_active
		FROM listings WHERE id = ?`, id)
	return l, err
}

// OfferRow is a buyer-facing offer on a product detail page.
type OfferRow struct {
	ListingID  string          `db:"listing_id"`
	SellerID   string          `db:"seller_id"`
	SellerName string          `db:"seller_name"`
	Price      decimal.Decimal `db:"price"`
	Quantity   int             `db:"quantity"`
}

func (r *ListingRepo) ActiveByProduct(productID string) ([]OfferRow, error) {
	var out []OfferRow
	err := r.db.Select(&out, `
		SELECT l.id AS listing_id, l.seller_id,
		       u.firstname || ' ' || u.lastname AS seller_name,
		       l.price, l.quantity
		FROM listings l
		JOIN users u ON u.id = l.seller_id
		WHERE l.product_id = ? AND l.is_active = 1 AND l.quantity > 0
		ORDER BY l.price, l.id`, productID)
	return out, err
}

// InventoryRow is a line on the seller's inventory page.
type InventoryRow struct {
	ListingID   string          `db:"listing_id"`
	SellerID    string          `db:"seller_id"`
	ProductID   string          `db:"product_id"`
	ProductName string          `db:"product_name"`
	BasePrice   decimal.Decimal `db:"base_price"`
	SellerPrice decimal.Decimal `db:"seller_price"`
	Quantity    int             `db:"quantity"`
	IsActive    bool            `db:"is_active"`
	ImageLink   string          `db:"image_link"`
}

func (r *ListingRepo) DetailedBySeller(sellerID string) ([]InventoryRow, error) {
	var out []InventoryRow
	err := r.db.Select(&out, `
		SELECT l.id AS listing_id, l.seller_id, l.product_id,
		       p.name AS product_name, p.base_price,
		       l.price AS seller_price, l.quantity, l.is_active,
		       COALESCE(p.image_link,'') AS image_link
		FROM listings l
		JOIN products p ON p.id = l.product_id
		WHERE l.seller_id = ?
		ORDER BY p.name, l.id`, sellerID)
	return out, err
}

// Upsert creates or updates the seller's offer for a product; one listing per
// (seller, product).
func (r *ListingRepo) Upsert(l domain.Listing) error {
	_, err := r.db.Exec(`
		INSERT INTO listings(id, seller_id, product_id, price, quantity, is_active)
		VALUES(?,?,?,?,?,?)
		ON CONFLICT(seller_id, product_id) DO UPDATE
		SET price = excluded.price,
		    quantity = excluded.quantity,
		    is_active = excluded.is_active`,
		l.ID, l.SellerID, l.ProductID, l.Price, l.Quantity, l.IsActive)
	return err
}

// SetActive flips a listing on or off; scoped to the owning seller.
// Returns sql.ErrNoRows-like zero rows via the bool.
func (r *ListingRepo) SetActive(sellerID, listingID string, active bool) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE listings SET is_active = ? WHERE id = ? AND seller_id = ?`,
		active, listingID, sellerID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
