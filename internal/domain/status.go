package domain

// ItemStatus is the per-item fulfillment lifecycle. Linear progression only;
// sellers move items forward (or back) one state at a time from their
// dashboard.
type ItemStatus string

const (
	ItemPlaced    ItemStatus = "Order Placed"
	ItemShipped   ItemStatus = "Shipped"
	ItemDelivered ItemStatus = "Delivered"
)

func ParseItemStatus(s string) (ItemStatus, bool) {
	switch ItemStatus(s) {
	case ItemPlaced, ItemShipped, ItemDelivered:
		return ItemStatus(s), true
	}
	return "", false
}

// OrderStatus is derived from the order's item statuses and recomputed inside
// the same transaction as every item transition:
//
//	fulfilled  — every item Delivered (and the order has at least one item)
//	shipped    — at least one item Shipped or Delivered
//	pending    — otherwise
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderShipped   OrderStatus = "shipped"
	OrderFulfilled OrderStatus = "fulfilled"
)

func AggregateOrderStatus(total, delivered, moving int) OrderStatus {
	switch {
	case total > 0 && delivered == total:
		return OrderFulfilled
	case moving > 0:
		return OrderShipped
	default:
		return OrderPending
	}
}
