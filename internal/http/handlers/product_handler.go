package handlers

import (
	"database/sql"
	"errors"
	"strconv"

	"bazaar/internal/domain"
	"bazaar/internal/log"
	"bazaar/internal/repos"
	"bazaar/internal/services"
	"bazaar/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog  *services.CatalogService
	Listings *repos.ListingRepo
	Reviews  *services.ReviewService
	Subs     *services.SubscriptionService
}

// Detail renders the product page: offers ordered by price, review block with
// votes and rank, similar products, and (for the logged-in viewer) their own
// review and subscription state.
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	p, err := h.Catalog.GetProduct(id)
	if err != nil || p.ID == "" {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}

	offers, err := h.Listings.ActiveByProduct(id)
	if err != nil {
		log.Error(c, "product.offers.fail", err, map[string]any{"product": id})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load offers"})
	}

	viewerID := ""
	if u := actor(c); u != nil {
		viewerID = u.ID
	}
	opts := repos.ReviewListOpts{ViewerID: viewerID, Sort: c.Query("sort")}
	if n, err := strconv.Atoi(c.Query("min_rating")); err == nil && n >= 1 && n <= 5 {
		opts.MinRating = n
	}
	reviews, err := h.Reviews.List(repos.ProductReview, id, opts)
	if err != nil {
		log.Error(c, "product.reviews.fail", err, map[string]any{"product": id})
		reviews = nil
	}
	summary, _ := h.Reviews.Summary(repos.ProductReview, id)
	similar, _ := h.Catalog.Similar(p)

	data := fiber.Map{
		"P":       p,
		"Offers":  offers,
		"Reviews": reviews,
		"Summary": summary,
		"Similar": similar,
	}
	if viewerID != "" {
		if sub, ok := h.Subs.ActiveFor(viewerID, id); ok {
			data["Subscription"] = sub
		}
	}
	return render(c, "product", data)
}

// NewForm / Create / EditForm / Edit back the seller-side product pages.

func (h *ProductHandler) NewForm(c *fiber.Ctx) error {
	cats, err := h.Catalog.Categories()
	if err != nil {
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load categories"})
	}
	return render(c, "product_form", fiber.Map{"Categories": cats})
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	u := actor(c)
	name, okN := validate.Name(c.FormValue("name"))
	catID, okC := validate.ID(c.FormValue("category_id"))
	price, okP := validate.Amount(c.FormValue("base_price"))
	if !okN || !okC || !okP {
		log.Security(c, "validation.fail", map[string]any{"field": "product_form"})
		return c.Status(400).SendString("invalid product details")
	}
	desc := c.FormValue("description")
	img := c.FormValue("image_link")

	id, err := h.Catalog.CreateProduct(u.ID, catID, name, desc, price, img)
	if err != nil {
		log.Error(c, "product.create.fail", err, nil)
		return c.Status(500).SendString("Could not create product")
	}
	log.Audit(c, "product.create", map[string]any{"product": id})
	return c.Redirect("/product/" + id)
}

func (h *ProductHandler) EditForm(c *fiber.Ctx) error {
	u := actor(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	p, err := h.Catalog.GetProduct(id)
	if err != nil || p.CreatorID != u.ID {
		return c.Status(403).Render("notfound", fiber.Map{"Message": "Access denied"})
	}
	cats, _ := h.Catalog.Categories()
	return render(c, "product_form", fiber.Map{"P": p, "Categories": cats})
}

func (h *ProductHandler) Edit(c *fiber.Ctx) error {
	u := actor(c)
	id, okI := validate.ID(c.Params("id"))
	name, okN := validate.Name(c.FormValue("name"))
	catID, okC := validate.ID(c.FormValue("category_id"))
	price, okP := validate.Amount(c.FormValue("base_price"))
	if !okI || !okN || !okC || !okP {
		log.Security(c, "validation.fail", map[string]any{"field": "product_form"})
		return c.Status(400).SendString("invalid product details")
	}

	err := h.Catalog.EditProduct(u.ID, domain.Product{
		ID:          id,
		CategoryID:  catID,
		Name:        name,
		Description: c.FormValue("description"),
		BasePrice:   price,
		ImageLink:   c.FormValue("image_link"),
	})
	if errors.Is(err, services.ErrNotCreator) {
		log.Security(c, "access.denied.product.edit", map[string]any{"product": id})
		return c.Status(403).SendString(err.Error())
	}
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	if err != nil {
		log.Error(c, "product.edit.fail", err, map[string]any{"product": id})
		return c.Status(500).SendString("Could not save product")
	}
	log.Audit(c, "product.edit", map[string]any{"product": id})
	return c.Redirect("/product/" + id)
}
