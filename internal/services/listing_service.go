package services

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

var ErrBadOffer = errors.New("Price must be positive and quantity may not be negative.")

// ListingService manages a seller's offers. Every mutation ends with an
// availability recompute for the touched product.
type ListingService struct {
	DB       *sqlx.DB
	Listings *repos.ListingRepo
}

func NewListingService(db *sqlx.DB, listings *repos.ListingRepo) *ListingService {
	return &ListingService{DB: db, Listings: listings}
}

func (s *ListingService) Inventory(sellerID string) ([]repos.InventoryRow, error) {
	return s.Listings.DetailedBySeller(sellerID)
}

// SetOffer creates or replaces the seller's listing for a product.
func (s *ListingService) SetOffer(sellerID, productID string, price decimal.Decimal, qty int, active bool) error {
	if !price.IsPositive() || qty < 0 {
		return ErrBadOffer
	}
	l := domain.Listing{
		ID:        uuid.NewString(),
		SellerID:  sellerID,
		ProductID: productID,
		Price:     price,
		Quantity:  qty,
		IsActive:  active,
	}
	if err := s.Listings.Upsert(l); err != nil {
		return err
	}
	return repos.RefreshAvailability(s.DB, productID)
}

// SetActive toggles a listing owned by the seller.
func (s *ListingService) SetActive(sellerID, listingID string, active bool) error {
	l, err := s.Listings.Get(listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrListingNotFound
	}
	if err != nil {
		return err
	}
	ok, err := s.Listings.SetActive(sellerID, listingID, active)
	if err != nil {
		return err
	}
	if !ok {
		return ErrListingNotFound
	}
	return repos.RefreshAvailability(s.DB, l.ProductID)
}
