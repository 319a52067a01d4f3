package services_test

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/repos"
	"bazaar/internal/services"
)

// placeTwoSellerOrder puts one mei item and one noor item on a single order
// and returns the order id plus the item id belonging to each seller.
func placeTwoSellerOrder(t *testing.T, db *sqlx.DB, cart *services.CartService, checkout *services.CheckoutService) (orderID, meiItem, noorItem string) {
	t.Helper()
	require.NoError(t, cart.AddItem("u-ada", "l-mei-kettle", 1))
	require.NoError(t, cart.AddItem("u-ada", "l-noor-lamp", 1))
	orderID, err := checkout.Place("u-ada")
	require.NoError(t, err)

	require.NoError(t, db.Get(&meiItem,
		`SELECT id FROM order_items WHERE order_id=? AND seller_id='u-mei'`, orderID))
	require.NoError(t, db.Get(&noorItem,
		`SELECT id FROM order_items WHERE order_id=? AND seller_id='u-noor'`, orderID))
	return orderID, meiItem, noorItem
}

func orderStatus(t *testing.T, db *sqlx.DB, orderID string) string {
	t.Helper()
	var s string
	require.NoError(t, db.Get(&s, `SELECT status FROM orders WHERE id=?`, orderID))
	return s
}

func TestFulfillmentStatusWalk(t *testing.T) {
	db, cart, checkout := newCheckoutDB(t)
	svc := services.NewFulfillmentService(db, repos.NewOrderRepo(db))

	orderID, meiItem, noorItem := placeTwoSellerOrder(t, db, cart, checkout)
	assert.Equal(t, "pending", orderStatus(t, db, orderID))

	// one of two items ships: order is shipped
	require.NoError(t, svc.UpdateItemStatus("u-mei", meiItem, "Shipped"))
	assert.Equal(t, "shipped", orderStatus(t, db, orderID))

	// both delivered: order is fulfilled, and fulfilled_at is stamped
	require.NoError(t, svc.UpdateItemStatus("u-mei", meiItem, "Delivered"))
	require.NoError(t, svc.UpdateItemStatus("u-noor", noorItem, "Delivered"))
	assert.Equal(t, "fulfilled", orderStatus(t, db, orderID))

	var fulfilledAt *string
	require.NoError(t, db.Get(&fulfilledAt, `SELECT fulfilled_at FROM order_items WHERE id=?`, meiItem))
	assert.NotNil(t, fulfilledAt)

	// walking an item back clears its timestamp and demotes the order
	require.NoError(t, svc.UpdateItemStatus("u-mei", meiItem, "Order Placed"))
	require.NoError(t, db.Get(&fulfilledAt, `SELECT fulfilled_at FROM order_items WHERE id=?`, meiItem))
	assert.Nil(t, fulfilledAt)
	assert.Equal(t, "shipped", orderStatus(t, db, orderID), "noor's item is still Delivered")

	require.NoError(t, svc.UpdateItemStatus("u-noor", noorItem, "Order Placed"))
	assert.Equal(t, "pending", orderStatus(t, db, orderID))
}

func TestFulfillmentRejectsInvalidStatus(t *testing.T) {
	db, cart, checkout := newCheckoutDB(t)
	svc := services.NewFulfillmentService(db, repos.NewOrderRepo(db))
	_, meiItem, _ := placeTwoSellerOrder(t, db, cart, checkout)

	err := svc.UpdateItemStatus("u-mei", meiItem, "Teleported")
	assert.ErrorIs(t, err, services.ErrInvalidStatus)
	assert.EqualError(t, err, "Invalid status")
}

func TestFulfillmentScopedToOwningSeller(t *testing.T) {
	db, cart, checkout := newCheckoutDB(t)
	svc := services.NewFulfillmentService(db, repos.NewOrderRepo(db))
	orderID, meiItem, _ := placeTwoSellerOrder(t, db, cart, checkout)

	// noor cannot touch mei's item; unknown ids look the same
	err := svc.UpdateItemStatus("u-noor", meiItem, "Shipped")
	assert.ErrorIs(t, err, services.ErrItemNotFound)
	assert.EqualError(t, err, "Order item not found or permission denied.")
	err = svc.UpdateItemStatus("u-mei", "oi-nope", "Shipped")
	assert.ErrorIs(t, err, services.ErrItemNotFound)

	// nothing changed
	var st string
	require.NoError(t, db.Get(&st, `SELECT fulfillment_status FROM order_items WHERE id=?`, meiItem))
	assert.Equal(t, "Order Placed", st)
	assert.Equal(t, "pending", orderStatus(t, db, orderID))
}
