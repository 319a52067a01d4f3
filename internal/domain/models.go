package domain

import "github.com/shopspring/decimal"

type Category struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

// Product.Available is derived: true iff at least one active listing with
// positive quantity exists. Every mutation that touches listing quantity or
// activity must recompute it (repos.RefreshAvailability).
type Product struct {
	ID           string              `db:"id"`
	CategoryID   string              `db:"category_id"`
	CategoryName string              `db:"category_name"`
	Name         string              `db:"name"`
	Description  string              `db:"description"`
	BasePrice    decimal.Decimal     `db:"base_price"`
	Available    bool                `db:"available"`
	ImageLink    string              `db:"image_link"`
	CreatorID    string              `db:"creator_id"`
	ListingPrice decimal.NullDecimal `db:"listing_price"` // MIN over active listings; falls back to BasePrice for display
	AvgRating    float64             `db:"avg_rating"`
	ReviewCount  int                 `db:"review_count"`
}

// Price is what buyers see: the cheapest active offer, or the base price when
// no seller currently lists the product.
func (p Product) Price() decimal.Decimal {
	if p.ListingPrice.Valid {
		return p.ListingPrice.Decimal
	}
	return p.BasePrice
}

// Listing is a seller's sellable offer of a product. Price and quantity here
// are authoritative for checkout; the cart only snapshots them.
type Listing struct {
	ID        string          `db:"id"`
	SellerID  string          `db:"seller_id"`
	ProductID string          `db:"product_id"`
	Price     decimal.Decimal `db:"price"`
	Quantity  int             `db:"quantity"`
	IsActive  bool            `db:"is_active"`
}

// CartEntry snapshots unit_price/product_id/seller_id from the listing at the
// time of the last write. The snapshot is display-only; checkout always uses
// the live listing row.
type CartEntry struct {
	UserID    string          `db:"user_id"`
	ListingID string          `db:"listing_id"`
	ProductID string          `db:"product_id"`
	SellerID  string          `db:"seller_id"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	Quantity  int             `db:"quantity"`
}

type Order struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	CreatedAt   string          `db:"created_at"`
	Status      OrderStatus     `db:"status"`
	TotalAmount decimal.Decimal `db:"total_amount"`
}

type OrderItem struct {
	ID          string          `db:"id"`
	OrderID     string          `db:"order_id"`
	ListingID   string          `db:"listing_id"`
	SellerID    string          `db:"seller_id"`
	ProductID   string          `db:"product_id"`
	UnitPrice   decimal.Decimal `db:"unit_price"` // frozen at checkout time
	Quantity    int             `db:"quantity"`
	Subtotal    decimal.Decimal `db:"subtotal"`
	Status      ItemStatus      `db:"fulfillment_status"`
	FulfilledAt string          `db:"fulfilled_at"`
}

// Fulfilled is a view over the status enum, not a stored column.
func (i OrderItem) Fulfilled() bool { return i.Status == ItemDelivered }

type Review struct {
	ID           string `db:"id"`
	SubjectID    string `db:"subject_id"` // product id or seller id
	UserID       string `db:"user_id"`
	Rating       int    `db:"rating"`
	Body         string `db:"body"`
	CreatedAt    string `db:"created_at"`
	FirstName    string `db:"firstname"`
	LastName     string `db:"lastname"`
	HelpfulCount int    `db:"helpful_count"`
	UserVoted    bool   `db:"user_voted"`
	HelpfulRank  int    `db:"helpful_rank"`
	Verified     bool   `db:"verified"`
}

type Subscription struct {
	ID           string `db:"id"`
	UserID       string `db:"user_id"`
	ProductID    string `db:"product_id"`
	Frequency    string `db:"frequency"`
	Active       bool   `db:"active"`
	CreatedAt    string `db:"created_at"`
	ProductName  string `db:"product_name"`
	CategoryName string `db:"category_name"`
}
