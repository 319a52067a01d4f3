package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "bazaar/internal/log"
	"bazaar/internal/repos"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

// SellerHandler backs the /seller routes: inventory management and the
// fulfillment dashboard. RequireSeller guards the group.
type SellerHandler struct {
	Listings *services.ListingService
	Catalog  *services.CatalogService
	Orders   *repos.OrderRepo
	Fulfill  *services.FulfillmentService
}

// GET /seller/inventory
func (h *SellerHandler) Inventory(c *fiber.Ctx) error {
	u := actor(c)
	rows, err := h.Listings.Inventory(u.ID)
	if err != nil {
		applog.Error(c, "seller.inventory.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load inventory"})
	}
	cats, _ := h.Catalog.Categories()
	return render(c, "seller_inventory", fiber.Map{"Rows": rows, "Categories": cats, "Err": c.Query("err")})
}

// GET /seller/inventory.json — same data for dashboard scripts.
func (h *SellerHandler) InventoryJSON(c *fiber.Ctx) error {
	u := actor(c)
	rows, err := h.Listings.Inventory(u.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "could not load inventory"})
	}
	return c.JSON(fiber.Map{"seller_id": u.ID, "listings": rows})
}

// POST /seller/inventory — create or replace the seller's offer for a product.
func (h *SellerHandler) SaveOffer(c *fiber.Ctx) error {
	u := actor(c)
	pid, okID := validate.ID(c.FormValue("product_id"))
	price, okP := validate.Amount(c.FormValue("price"))
	qty, okQ := validate.Qty(c.FormValue("quantity"))
	active := c.FormValue("is_active") != "0"
	if !okID || !okP || !okQ || qty < 0 {
		return c.Status(400).SendString("invalid input")
	}
	if err := h.Listings.SetOffer(u.ID, pid, price, qty, active); err != nil {
		applog.Error(c, "seller.inventory.save.fail", err, map[string]any{"product": pid, "qty": qty})
		return c.Status(400).SendString("could not save listing")
	}
	applog.Audit(c, "seller.inventory.save", map[string]any{"product": pid, "qty": qty, "active": active})
	return c.Redirect("/seller/inventory")
}

// POST /seller/listings/:id/active
func (h *SellerHandler) SetListingActive(c *fiber.Ctx) error {
	u := actor(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing listing id")
	}
	active := c.FormValue("active") == "1"
	if err := h.Listings.SetActive(u.ID, id, active); err != nil {
		applog.Error(c, "seller.listing.toggle.fail", err, map[string]any{"listing": id})
		return c.Status(400).SendString(err.Error())
	}
	applog.Audit(c, "seller.listing.toggle", map[string]any{"listing": id, "active": active})
	return c.Redirect("/seller/inventory")
}

// GET /seller/orders — fulfillment dashboard, items grouped per order.
func (h *SellerHandler) OrdersPage(c *fiber.Ctx) error {
	u := actor(c)
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	items, err := h.Orders.ItemsForSeller(u.ID, q)
	if err != nil {
		applog.Error(c, "seller.orders.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}

	// Group into per-order blocks, preserving query order.
	type orderBlock struct {
		OrderID    string
		CreatedAt  string
		Status     string
		BuyerName  string
		BuyerAddr  string
		TotalItems int
		Items      []repos.SellerItemRow
	}
	var blocks []*orderBlock
	byOrder := map[string]*orderBlock{}
	for _, it := range items {
		b, ok := byOrder[it.OrderID]
		if !ok {
			b = &orderBlock{
				OrderID:    it.OrderID,
				CreatedAt:  it.OrderCreatedAt,
				Status:     it.OrderStatus,
				BuyerName:  it.BuyerName,
				BuyerAddr:  it.BuyerAddress,
				TotalItems: it.OrderTotalItems,
			}
			byOrder[it.OrderID] = b
			blocks = append(blocks, b)
		}
		b.Items = append(b.Items, it)
	}

	return render(c, "seller_orders", fiber.Map{"Blocks": blocks, "Q": q})
}

// POST /seller/items/:id/status — move one item through the lifecycle.
func (h *SellerHandler) UpdateItemStatus(c *fiber.Ctx) error {
	u := actor(c)
	itemID := c.Params("id")
	status := c.FormValue("status")
	if itemID == "" {
		return c.Status(400).SendString("missing item id")
	}
	if err := h.Fulfill.UpdateItemStatus(u.ID, itemID, status); err != nil {
		applog.Security(c, "seller.fulfill.reject", map[string]any{"item": itemID, "reason": err.Error()})
		return c.Status(400).SendString(err.Error())
	}
	applog.Audit(c, "seller.fulfill.update", map[string]any{"item": itemID, "status": status})
	return c.Redirect("/seller/orders")
}
