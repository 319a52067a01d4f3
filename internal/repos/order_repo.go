package repos

import (
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// ---------- Buyer order list ----------

type OrderSummary struct {
	ID             string             `db:"id"`
	UserID         string             `db:"user_id"`
	CreatedAt      string             `db:"created_at"`
	Status         domain.OrderStatus `db:"status"`
	TotalAmount    decimal.Decimal    `db:"total_amount"`
	ItemCount      int                `db:"item_count"`
	FulfilledCount int                `db:"fulfilled_count"`
}

func (s OrderSummary) IsFulfilled() bool { return s.ItemCount > 0 && s.ItemCount == s.FulfilledCount }

func (r *OrderRepo) ListByUser(userID string) ([]OrderSummary, error) {
	var out []OrderSummary
	err := r.db.Select(&out, `
		SELECT o.id, o.user_id, o.created_at, o.status, o.total_amount,
		       COALESCE(COUNT(oi.id), 0) AS item_count,
		       COALESCE(SUM(CASE WHEN oi.fulfillment_status = 'Delivered' THEN 1 ELSE 0 END), 0) AS fulfilled_count
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE o.user_id = ?
		GROUP BY o.id, o.user_id, o.created_at, o.status, o.total_amount
		ORDER BY datetime(o.created_at) DESC, o.id DESC`, userID)
	return out, err
}

// ---------- Order detail (buyer view) ----------

type OrderItemRow struct {
	ID          string            `db:"id"`
	ListingID   string            `db:"listing_id"`
	ProductID   string            `db:"product_id"`
	ProductName string            `db:"product_name"`
	SellerID    string            `db:"seller_id"`
	SellerName  string            `db:"seller_name"`
	UnitPrice   decimal.Decimal   `db:"unit_price"`
	Quantity    int               `db:"quantity"`
	Subtotal    decimal.Decimal   `db:"subtotal"`
	Status      domain.ItemStatus `db:"fulfillment_status"`
	FulfilledAt string            `db:"fulfilled_at"`
}

func (i OrderItemRow) Fulfilled() bool { return i.Status == domain.ItemDelivered }

// GetWithItems loads an order scoped to its owner, with display rows for each
// line item. Returns sql.ErrNoRows when the order is absent or owned by
// someone else.
func (r *OrderRepo) GetWithItems(userID, orderID string) (domain.Order, []OrderItemRow, error) {
	var o domain.Order
	if err := r.db.Get(&o, `
		SELECT id, user_id, created_at, status, total_amount
		FROM orders
		WHERE id = ? AND user_id = ?`, orderID, userID); err != nil {
		return domain.Order{}, nil, err
	}

	var items []OrderItemRow
	if err := r.db.Select(&items, `
		SELECT oi.id, oi.listing_id, oi.product_id,
		       p.name AS product_name,
		       oi.seller_id,
		       u.firstname || ' ' || u.lastname AS seller_name,
		       oi.unit_price, oi.quantity, oi.subtotal,
		       oi.fulfillment_status, COALESCE(oi.fulfilled_at,'') AS fulfilled_at
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		JOIN users u ON oi.seller_id = u.id
		WHERE oi.order_id = ?
		ORDER BY oi.id`, orderID); err != nil {
		return domain.Order{}, nil, err
	}

	return o, items, nil
}

// ---------- Seller fulfillment dashboard ----------

type SellerItemRow struct {
	ItemID          string            `db:"item_id"`
	OrderID         string            `db:"order_id"`
	ProductID       string            `db:"product_id"`
	ProductName     string            `db:"product_name"`
	Quantity        int               `db:"quantity"`
	UnitPrice       decimal.Decimal   `db:"unit_price"`
	Subtotal        decimal.Decimal   `db:"subtotal"`
	Status          domain.ItemStatus `db:"fulfillment_status"`
	FulfilledAt     string            `db:"fulfilled_at"`
	BuyerID         string            `db:"buyer_id"`
	BuyerName       string            `db:"buyer_name"`
	BuyerAddress    string            `db:"buyer_address"`
	OrderCreatedAt  string            `db:"order_created_at"`
	OrderStatus     string            `db:"order_status"`
	OrderTotal      decimal.Decimal   `db:"order_total"`
	OrderTotalItems int               `db:"order_total_items"`
}

// ItemsForSeller lists every order item belonging to a seller, newest orders
// first. q filters by order id or buyer name (partial, case-insensitive).
func (r *OrderRepo) ItemsForSeller(sellerID, q string) ([]SellerItemRow, error) {
	sql := `
		SELECT oi.id AS item_id,
		       oi.order_id,
		       oi.product_id,
		       p.name AS product_name,
		       oi.quantity,
		       oi.unit_price,
		       oi.subtotal,
		       oi.fulfillment_status,
		       COALESCE(oi.fulfilled_at,'') AS fulfilled_at,
		       o.user_id AS buyer_id,
		       bu.firstname || ' ' || bu.lastname AS buyer_name,
		       COALESCE(bu.address,'') AS buyer_address,
		       o.created_at AS order_created_at,
		       o.status AS order_status,
		       o.total_amount AS order_total,
		       (SELECT COALESCE(SUM(quantity),0) FROM order_items WHERE order_id = o.id) AS order_total_items
		FROM order_items oi
		JOIN orders o ON oi.order_id = o.id
		JOIN products p ON oi.product_id = p.id
		JOIN users bu ON o.user_id = bu.id
		WHERE oi.seller_id = ?`
	args := []any{sellerID}
	if q != "" {
		sql += ` AND (LOWER(o.id) LIKE ? OR LOWER(bu.firstname || ' ' || bu.lastname) LIKE ?)`
		like := "%" + q + "%"
		args = append(args, like, like)
	}
	sql += ` ORDER BY datetime(o.created_at) DESC, oi.id`

	var out []SellerItemRow
	err := r.db.Select(&out, sql, args...)
	return out, err
}

// ---------- Purchase history (flattened across orders) ----------

type PurchaseRow struct {
	ProductID   string            `db:"product_id"`
	ProductName string            `db:"product_name"`
	Quantity    int               `db:"quantity"`
	UnitPrice   decimal.Decimal   `db:"unit_price"`
	Subtotal    decimal.Decimal   `db:"subtotal"`
	Status      domain.ItemStatus `db:"fulfillment_status"`
	FulfilledAt string            `db:"fulfilled_at"`
	OrderID     string            `db:"order_id"`
	OrderDate   string            `db:"order_date"`
}

func (r *OrderRepo) PurchasesByUser(userID, q string) ([]PurchaseRow, error) {
	sql := `
		SELECT oi.product_id,
		       p.name AS product_name,
		       oi.quantity,
		       oi.unit_price,
		       oi.subtotal,
		       oi.fulfillment_status,
		       COALESCE(oi.fulfilled_at,'') AS fulfilled_at,
		       oi.order_id,
		       o.created_at AS order_date
		FROM order_items oi
		JOIN orders o ON oi.order_id = o.id
		JOIN products p ON oi.product_id = p.id
		WHERE o.user_id = ?`
	args := []any{userID}
	if q != "" {
		sql += ` AND LOWER(p.name) LIKE ?`
		args = append(args, "%"+q+"%")
	}
	sql += ` ORDER BY datetime(o.created_at) DESC, oi.id`

	var out []PurchaseRow
	err := r.db.Select(&out, sql, args...)
	return out, err
}

// HasPurchasedFrom reports whether the user has any order item sold by the
// given seller. Gates seller reviews.
func (r *OrderRepo) HasPurchasedFrom(userID, sellerID string) (bool, error) {
	var n int
	err := r.db.Get(&n, `
		SELECT COUNT(*)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.user_id = ? AND oi.seller_id = ?`, userID, sellerID)
	return n > 0, err
}
