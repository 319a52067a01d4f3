package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	applog "bazaar/internal/log"
	"bazaar/internal/repos"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

type ReviewHandler struct {
	Reviews *services.ReviewService
}

func reviewKind(s string) (repos.ReviewKind, bool) {
	switch s {
	case "product":
		return repos.ProductReview, true
	case "seller":
		return repos.SellerReview, true
	}
	return "", false
}

// POST /reviews/:kind/:subjectID — write or replace the actor's review.
func (h *ReviewHandler) Submit(c *fiber.Ctx) error {
	u := actor(c)
	kind, ok := reviewKind(c.Params("kind"))
	if !ok {
		return c.Status(400).SendString("unknown review type")
	}
	subjectID, okID := validate.ID(c.Params("subjectID"))
	rating, okR := validate.Rating(c.FormValue("rating"))
	body := c.FormValue("body")
	if !okID || !okR {
		applog.Security(c, "validation.fail", map[string]any{"field": "review"})
		return c.Status(400).SendString(services.ErrBadRating.Error())
	}

	var err error
	if kind == repos.SellerReview {
		err = h.Reviews.SubmitSeller(u.ID, subjectID, rating, body)
	} else {
		err = h.Reviews.SubmitProduct(u.ID, subjectID, rating, body)
	}
	if err != nil {
		applog.Info(c, "review.submit.reject", map[string]any{"subject": subjectID, "reason": err.Error()})
		return c.Status(400).SendString(err.Error())
	}
	applog.Audit(c, "review.submit", map[string]any{"kind": string(kind), "subject": subjectID, "rating": rating})

	back := c.Get("Referer")
	if back == "" {
		back = "/reviews/mine"
	}
	return c.Redirect(back)
}

// POST /reviews/:kind/:subjectID/delete — remove the actor's own review.
func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	u := actor(c)
	kind, ok := reviewKind(c.Params("kind"))
	if !ok {
		return c.Status(400).SendString("unknown review type")
	}
	subjectID, okID := validate.ID(c.Params("subjectID"))
	if !okID {
		return c.Status(400).SendString("missing subject")
	}
	if err := h.Reviews.DeleteOwn(kind, subjectID, u.ID); err != nil {
		applog.Error(c, "review.delete.fail", err, map[string]any{"subject": subjectID})
		return c.Status(500).SendString("Could not delete review")
	}
	applog.Audit(c, "review.delete", map[string]any{"kind": string(kind), "subject": subjectID})
	return c.Redirect("/reviews/mine")
}

// POST /reviews/:kind/:reviewID/vote — toggle the helpfulness vote.
func (h *ReviewHandler) Vote(c *fiber.Ctx) error {
	u := actor(c)
	kind, ok := reviewKind(c.Params("kind"))
	if !ok {
		return c.Status(400).SendString("unknown review type")
	}
	reviewID, okID := validate.ID(c.Params("reviewID"))
	if !okID {
		return c.Status(400).SendString("missing review id")
	}
	voted, err := h.Reviews.ToggleVote(kind, reviewID, u.ID)
	if err != nil {
		applog.Error(c, "review.vote.fail", err, map[string]any{"review": reviewID})
		return c.Status(500).SendString("Could not record vote")
	}
	applog.Audit(c, "review.vote", map[string]any{"review": reviewID, "voted": voted})

	back := c.Get("Referer")
	if back == "" {
		back = "/social"
	}
	return c.Redirect(back)
}

// GET /reviews/mine
func (h *ReviewHandler) Mine(c *fiber.Ctx) error {
	u := actor(c)
	products, sellers, err := h.Reviews.Mine(u.ID)
	if err != nil {
		applog.Error(c, "review.mine.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load your reviews"})
	}
	return render(c, "my_reviews", fiber.Map{"ProductReviews": products, "SellerReviews": sellers})
}

// GET /social — recent feedback across the site.
func (h *ReviewHandler) Feed(c *fiber.Ctx) error {
	kind := c.Query("type")
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.Reviews.Feed(kind, limit)
	if err != nil {
		applog.Error(c, "review.feed.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load recent feedback"})
	}
	return render(c, "social", fiber.Map{"Rows": rows, "Type": kind})
}
