package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"bazaar/internal/config"
	"bazaar/internal/http/handlers"
	"bazaar/internal/repos"
	"bazaar/internal/services"
)

// Minimal app setup for validation tests
func newValidationApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	cfg := config.Config{DBDSN: ":memory:", MediaDir: "../../web/media"}
	db, err := repos.OpenDB(cfg.DBDSN, true)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Server().MaxRequestBodySize = 1 << 20
	app.Use(requestid.New())
	app.Use(limiter.New(limiter.Config{Max: 100, Expiration: 0}))
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax"}))

	deps := handlers.NewDeps(db, cfg, authSvc)
	app.Get("/search", deps.SearchHandler.Search)
	app.Get("/product/:id", deps.ProductHandler.Detail)
	api := app.Group("/api/v1")
	api.Get("/availability", deps.AvailabilityHandler.Check)

	return app, db
}

// Reject malformed inputs early
func TestValidationBadInputs(t *testing.T) {
	app, _ := newValidationApp(t)

	// availability without a product id
	req := httptest.NewRequest("GET", "/api/v1/availability", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing productId expected 400, got %d", resp.StatusCode)
	}

	// availability for an unknown product
	req2 := httptest.NewRequest("GET", "/api/v1/availability?productId=p-nope", nil)
	resp2, err := app.Test(req2)
	if err != nil {
		t.Fatal(err)
	}
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown product expected 404, got %d", resp2.StatusCode)
	}

	// search with invalid chars
	req3 := httptest.NewRequest("GET", "/search?q=%3Cscript%3E", nil)
	resp3, err := app.Test(req3)
	if err != nil {
		t.Fatal(err)
	}
	if resp3.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad search expected 400, got %d", resp3.StatusCode)
	}

	// search with an unsupported sort
	req4 := httptest.NewRequest("GET", "/search?q=lamp&sort=cheapest", nil)
	resp4, err := app.Test(req4)
	if err != nil {
		t.Fatal(err)
	}
	if resp4.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad sort expected 400, got %d", resp4.StatusCode)
	}

	// search with an out-of-range rating filter
	req5 := httptest.NewRequest("GET", "/search?q=lamp&min_rating=9", nil)
	resp5, err := app.Test(req5)
	if err != nil {
		t.Fatal(err)
	}
	if resp5.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad min_rating expected 400, got %d", resp5.StatusCode)
	}
}

// Templates auto-escape untrusted text
func TestTemplateAutoEscape(t *testing.T) {
	app, db := newValidationApp(t)
	// Insert a product with XSS-y fields
	_, _ = db.Exec(`
		INSERT INTO products(id,category_id,name,description,base_price,available,image_link)
		VALUES('xss-1','books','<script>alert(1)</script>','<b>desc</b>',9.99,0,'')
	`)

	req := httptest.NewRequest("GET", "/product/xss-1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	s := string(body)
	if strings.Contains(s, "<script>alert(1)</script>") {
		t.Fatalf("found unescaped script tag in output")
	}
	if !strings.Contains(s, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Fatalf("escaped script not found; output=%s", s)
	}
}
