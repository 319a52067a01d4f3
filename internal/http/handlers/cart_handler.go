package handlers

import (
	applog "bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// CartHandler serves the /cart/:userID routes. RequireUser + RequireSelf run
// first, so the path owner is always the authenticated actor.
type CartHandler struct {
	Cart     *services.CartService
	Checkout *services.CheckoutService
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	u := actor(c)
	cv, err := h.Cart.View(u.ID)
	if err != nil {
		applog.Error(c, "cart.view.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	return render(c, "cart", fiber.Map{"Cart": cv, "Err": c.Query("err")})
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	u := actor(c)
	listingID := c.FormValue("listing_id")
	qty, ok := validate.Qty(c.FormValue("quantity"))
	if !ok {
		qty = 1
	}

	if err := h.Cart.AddItem(u.ID, listingID, qty); err != nil {
		applog.Info(c, "cart.add.reject", map[string]any{"listing": listingID, "reason": err.Error()})
		return c.Status(400).SendString(err.Error())
	}
	applog.Audit(c, "cart.add", map[string]any{"listing": listingID, "qty": qty})
	return c.Redirect("/cart/" + u.ID)
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	u := actor(c)
	listingID := c.FormValue("listing_id")
	qty, ok := validate.Qty(c.FormValue("quantity"))
	if !ok {
		return c.Status(400).SendString(services.ErrQuantityNotPositive.Error())
	}

	if err := h.Cart.UpdateQuantity(u.ID, listingID, qty); err != nil {
		applog.Info(c, "cart.update.reject", map[string]any{"listing": listingID, "reason": err.Error()})
		return c.Status(400).SendString(err.Error())
	}
	applog.Audit(c, "cart.update", map[string]any{"listing": listingID, "qty": qty})
	return c.Redirect("/cart/" + u.ID)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	u := actor(c)
	listingID := c.FormValue("listing_id")
	if err := h.Cart.RemoveItem(u.ID, listingID); err != nil {
		return c.Status(400).SendString(err.Error())
	}
	applog.Audit(c, "cart.remove", map[string]any{"listing": listingID})
	return c.Redirect("/cart/" + u.ID)
}

// PlaceOrder runs checkout for the cart owner. Business errors come back with
// their exact message so the cart page can show them verbatim.
func (h *CartHandler) PlaceOrder(c *fiber.Ctx) error {
	u := actor(c)
	orderID, err := h.Checkout.Place(u.ID)
	if err != nil {
		applog.Info(c, "checkout.reject", map[string]any{"user": u.ID, "reason": err.Error()})
		return c.Status(400).SendString(err.Error())
	}
	applog.Audit(c, "checkout.place", map[string]any{"user": u.ID, "order_id": orderID})
	return c.Redirect("/orders/" + orderID)
}
