package handlers

import (
	applog "bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type SubscriptionHandler struct {
	Subs *services.SubscriptionService
}

func (h *SubscriptionHandler) List(c *fiber.Ctx) error {
	u := actor(c)
	subs, err := h.Subs.ListActive(u.ID)
	if err != nil {
		applog.Error(c, "subscriptions.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load subscriptions"})
	}
	return render(c, "subscriptions", fiber.Map{"Subs": subs})
}

func (h *SubscriptionHandler) Subscribe(c *fiber.Ctx) error {
	u := actor(c)
	pid, ok := validate.ID(c.FormValue("product_id"))
	if !ok {
		return c.Status(400).SendString("missing product_id")
	}
	freq := c.FormValue("frequency")
	if err := h.Subs.Subscribe(u.ID, pid, freq); err != nil {
		applog.Info(c, "subscriptions.save.reject", map[string]any{"product": pid, "reason": err.Error()})
		return c.Status(400).SendString(err.Error())
	}
	applog.Audit(c, "subscriptions.save", map[string]any{"product": pid, "frequency": freq})

	back := c.Get("Referer")
	if back == "" {
		back = "/subscriptions"
	}
	return c.Redirect(back)
}

func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	u := actor(c)
	id, ok := validate.ID(c.FormValue("subscription_id"))
	if !ok {
		return c.Status(400).SendString("missing subscription_id")
	}
	if err := h.Subs.Cancel(id, u.ID); err != nil {
		applog.Info(c, "subscriptions.cancel.reject", map[string]any{"subscription": id, "reason": err.Error()})
		return c.Status(400).SendString(err.Error())
	}
	applog.Audit(c, "subscriptions.cancel", map[string]any{"subscription": id})
	return c.Redirect("/subscriptions")
}
