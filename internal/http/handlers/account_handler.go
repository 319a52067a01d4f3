package handlers

import (
	applog "bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AccountHandler struct {
	Accounts *services.AccountService
}

// GET /account
func (h *AccountHandler) Profile(c *fiber.Ctx) error {
	u := actor(c)
	// Re-read so the balance reflects any checkout that just happened.
	fresh, err := h.Accounts.Get(u.ID)
	if err != nil {
		applog.Error(c, "account.load.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load your account"})
	}
	return render(c, "account", fiber.Map{"Account": fresh, "Err": c.Query("err")})
}

// POST /account
func (h *AccountHandler) Update(c *fiber.Ctx) error {
	u := actor(c)
	first, okF := validate.Name(c.FormValue("firstname"))
	last, okL := validate.Name(c.FormValue("lastname"))
	email, okE := validate.Email(c.FormValue("email"))
	if !okF || !okL || !okE {
		applog.Security(c, "validation.fail", map[string]any{"field": "account"})
		return c.Status(400).SendString("invalid account details")
	}
	address := c.FormValue("address")

	if err := h.Accounts.UpdateProfile(u.ID, first, last, email, address); err != nil {
		applog.Error(c, "account.update.fail", err, nil)
		return c.Status(400).SendString("could not update account")
	}
	applog.Audit(c, "account.update", map[string]any{"email": email})
	return c.Redirect("/account")
}

// POST /account/deposit
func (h *AccountHandler) Deposit(c *fiber.Ctx) error {
	u := actor(c)
	amount, ok := validate.Amount(c.FormValue("amount"))
	if !ok {
		return c.Status(400).SendString(services.ErrAmountNotPositive.Error())
	}
	if err := h.Accounts.Deposit(u.ID, amount); err != nil {
		applog.Error(c, "account.deposit.fail", err, nil)
		return c.Status(400).SendString(err.Error())
	}
	applog.Audit(c, "account.deposit", map[string]any{"amount": amount.String()})
	return c.Redirect("/account")
}

// POST /account/withdraw
func (h *AccountHandler) Withdraw(c *fiber.Ctx) error {
	u := actor(c)
	amount, ok := validate.Amount(c.FormValue("amount"))
	if !ok {
		return c.Status(400).SendString(services.ErrAmountNotPositive.Error())
	}
	if err := h.Accounts.Withdraw(u.ID, amount); err != nil {
		applog.Info(c, "account.withdraw.reject", map[string]any{"reason": err.Error()})
		return c.Status(400).SendString(err.Error())
	}
	applog.Audit(c, "account.withdraw", map[string]any{"amount": amount.String()})
	return c.Redirect("/account")
}
