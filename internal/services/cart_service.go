package services

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

// CartService owns cart writes. Every write re-reads the live listing inside
// a transaction and re-stamps the snapshot columns, so a cart line always
// reflects the offer as of its last touch.
type CartService struct {
	DB    *sqlx.DB
	Carts *repos.CartRepo
}

func NewCartService(db *sqlx.DB, carts *repos.CartRepo) *CartService {
	return &CartService{DB: db, Carts: carts}
}

func (s *CartService) AddItem(userID, listingID string, qty int) error {
	if listingID == "" {
		return ErrMissingListing
	}
	if qty <= 0 {
		return ErrQuantityNotPositive
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var l domain.Listing
	err = tx.Get(&l, `SELECT id, seller_id, product_id, price, quantity, is_active
	                  FROM listings WHERE id = ?`, listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrListingNotFound
	}
	if err != nil {
		return err
	}
	if !l.IsActive || l.Quantity <= 0 {
		return ErrListingUnavailable
	}

	var existing int
	err = tx.Get(&existing, `SELECT quantity FROM cart_items WHERE user_id = ? AND listing_id = ?`,
		userID, listingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	newQty := existing + qty
	if newQty > l.Quantity {
		return ErrExceedsInventory
	}

	if _, err := tx.Exec(`
		INSERT INTO cart_items(user_id, listing_id, product_id, seller_id, unit_price, quantity)
		VALUES(?,?,?,?,?,?)
		ON CONFLICT(user_id, listing_id) DO UPDATE
		SET product_id = excluded.product_id,
		    seller_id = excluded.seller_id,
		    unit_price = excluded.unit_price,
		    quantity = excluded.quantity`,
		userID, listingID, l.ProductID, l.SellerID, l.Price, newQty); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateQuantity sets an existing line's quantity. Zero removes the line;
// negative values are rejected.
func (s *CartService) UpdateQuantity(userID, listingID string, qty int) error {
	if listingID == "" {
		return ErrMissingListing
	}
	if qty < 0 {
		return ErrQuantityNotPositive
	}
	if qty == 0 {
		return s.Carts.Remove(userID, listingID)
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var l domain.Listing
	err = tx.Get(&l, `SELECT id, seller_id, product_id, price, quantity, is_active
	                  FROM listings WHERE id = ?`, listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrListingNotFound
	}
	if err != nil {
		return err
	}
	if !l.IsActive {
		return ErrListingUnavailable
	}
	if qty > l.Quantity {
		return ErrExceedsInventory
	}

	res, err := tx.Exec(`
		UPDATE cart_items SET quantity = ?, unit_price = ?
		WHERE user_id = ? AND listing_id = ?`,
		qty, l.Price, userID, listingID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCartItemNotFound
	}

	return tx.Commit()
}

func (s *CartService) RemoveItem(userID, listingID string) error {
	if listingID == "" {
		return ErrMissingListing
	}
	return s.Carts.Remove(userID, listingID)
}

func (s *CartService) Clear(userID string) error {
	return s.Carts.Clear(userID)
}

type CartView struct {
	Items []repos.CartRow
	Total decimal.Decimal
}

func (s *CartService) View(userID string) (CartView, error) {
	items, err := s.Carts.ByUser(userID)
	if err != nil {
		return CartView{}, err
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return CartView{Items: items, Total: total}, nil
}
