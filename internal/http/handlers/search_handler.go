package handlers

import (
	"strconv"
	"strings"

	"bazaar/internal/log"
	"bazaar/internal/repos"
	"bazaar/internal/services"
	"bazaar/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

func (h *SearchHandler) Search(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	if strings.TrimSpace(rawQ) == "" {
		// Initial page load: show empty search without errors
		return render(c, "search", fiber.Map{"Q": "", "Products": []any{}, "Count": 0})
	}
	q, ok := validate.Q(rawQ)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
		return c.Status(fiber.StatusBadRequest).Render("search", fiber.Map{
			"Q": "", "Products": []any{}, "Count": 0, "Err": "Enter a valid keyword (letters/numbers only)",
		})
	}
	q = strings.ToLower(q)
	category := strings.TrimSpace(c.Query("category"))
	if category != "" {
		if _, ok := validate.ID(category); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "category"})
			return c.Status(fiber.StatusBadRequest).Render("search", fiber.Map{
				"Q": q, "Products": []any{}, "Count": 0, "Err": "Invalid category",
			})
		}
	}
	sort := c.Query("sort")
	if sort != "" && sort != "price_asc" && sort != "price_desc" {
		log.Security(c, "validation.fail", map[string]any{"field": "sort"})
		return c.Status(fiber.StatusBadRequest).Render("search", fiber.Map{
			"Q": q, "Products": []any{}, "Count": 0, "Err": "Invalid sort",
		})
	}
	var minRating float64
	if raw := c.Query("min_rating"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 || f > 5 {
			log.Security(c, "validation.fail", map[string]any{"field": "min_rating"})
			return c.Status(fiber.StatusBadRequest).Render("search", fiber.Map{
				"Q": q, "Products": []any{}, "Count": 0, "Err": "Invalid filter",
			})
		}
		minRating = f
	}

	products, err := h.Catalog.Browse(repos.SearchOpts{
		Q:               q,
		CategoryID:      category,
		Sort:            sort,
		RatingThreshold: minRating,
		Limit:           20,
	})
	if err != nil {
		log.Error(c, "search.error", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load results. Please retry."})
	}

	return render(c, "search", fiber.Map{
		"Q": q, "CategoryID": category, "Sort": sort, "MinRating": minRating,
		"Products": products, "Count": len(products),
	})
}
