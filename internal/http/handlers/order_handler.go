package handlers

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "bazaar/internal/log"
	"bazaar/internal/repos"
)

// OrderHandler serves buyer-side order views. All routes sit behind
// RequireUser; queries are scoped to the actor, so another user's order id
// 404s rather than leaking.
type OrderHandler struct {
	Orders *repos.OrderRepo
}

func (h *OrderHandler) History(c *fiber.Ctx) error {
	u := actor(c)
	orders, err := h.Orders.ListByUser(u.ID)
	if err != nil {
		applog.Error(c, "orders.history.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	return render(c, "order_history", fiber.Map{"Orders": orders})
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	u := actor(c)
	oid := c.Params("id")
	if oid == "" {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}

	o, items, err := h.Orders.GetWithItems(u.ID, oid)
	if errors.Is(err, sql.ErrNoRows) {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	if err != nil {
		applog.Error(c, "orders.view.fail", err, map[string]any{"order_id": oid})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load order"})
	}

	return render(c, "order", fiber.Map{"Order": o, "Items": items})
}

// Purchases flattens order items across orders, filterable by product name.
func (h *OrderHandler) Purchases(c *fiber.Ctx) error {
	u := actor(c)
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	rows, err := h.Orders.PurchasesByUser(u.ID, q)
	if err != nil {
		applog.Error(c, "orders.purchases.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load purchases"})
	}
	return render(c, "purchases", fiber.Map{"Purchases": rows, "Q": q})
}
