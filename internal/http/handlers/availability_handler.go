package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/repos"
	"bazaar/internal/services"
)

// AvailabilityHandler answers the public stock-check API used by product
// pages: aggregate availability across all active listings of a product.
type AvailabilityHandler struct {
	Listings *repos.ListingRepo
	Catalog  *services.CatalogService
}

func (h *AvailabilityHandler) Check(c *fiber.Ctx) error {
	productID := strings.TrimSpace(c.Query("productId"))
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing productId",
		})
	}

	p, err := h.Catalog.GetProduct(productID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown product",
		})
	}

	offers, err := h.Listings.ActiveByProduct(productID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	total := 0
	for _, o := range offers {
		total += o.Quantity
	}
	return c.JSON(fiber.Map{
		"product_id":     p.ID,
		"available":      p.Available,
		"total_quantity": total,
		"offers":         len(offers),
	})
}
