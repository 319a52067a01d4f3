package handlers

import (
	"bazaar/internal/repos"
	"bazaar/internal/services"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) Home(c *fiber.Ctx) error {
	cats, err := h.Catalog.Categories()
	if err != nil {
		return c.Status(500).SendString(err.Error())
	}
	featured, _ := h.Catalog.Browse(repos.SearchOpts{Limit: 12})
	return render(c, "home", fiber.Map{"Categories": cats, "Products": featured})
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	catID := c.Params("id")
	cat, err := h.Catalog.Category(catID)
	if err != nil {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Category not found"})
	}
	products, err := h.Catalog.Browse(repos.SearchOpts{CategoryID: catID, Sort: c.Query("sort"), Limit: 24})
	if err != nil {
		return c.Status(500).SendString(err.Error())
	}
	return render(c, "category", fiber.Map{"Category": cat, "Products": products})
}
