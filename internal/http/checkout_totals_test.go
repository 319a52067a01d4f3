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
	"github.com/shopspring/decimal"

	"bazaar/internal/config"
	"bazaar/internal/http/handlers"
	"bazaar/internal/repos"
	"bazaar/internal/services"
)

// Helper: minimal app for checkout with recompute check
func newCheckoutApp(t *testing.T) (*fiber.App, *sqlx.DB, *repos.UserRepo) {
	t.Helper()
	cfg := config.Config{DBDSN: ":memory:", MediaDir: "../../web/media"}
	db, err := repos.OpenDB(cfg.DBDSN, true)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Server().MaxRequestBodySize = 1 << 20
	app.Use(requestid.New())
	app.Use(limiter.New(limiter.Config{Max: 100, Expiration: 0}))
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax"}))

	deps := handlers.NewDeps(db, cfg, authSvc)
	cart := app.Group("/cart/:userID", handlers.RequireUser(authSvc), handlers.RequireSelf)
	cart.Post("/checkout", deps.CartHandler.PlaceOrder)
	app.Get("/login", authH.LoginForm)

	return app, db, userRepo
}

func extractCookieTotals(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// Client-visible cart prices are a display snapshot; checkout must charge the
// live listing price even if the snapshot was tampered with.
func TestCheckoutTotalsRecomputed(t *testing.T) {
	app, db, userRepo := newCheckoutApp(t)
	_ = userRepo.BindSession("sid-ada", "u-ada")

	// Cart line with a tampered unit_price ($1 instead of the real 32.00)
	_, err := db.Exec(`INSERT INTO cart_items(user_id,listing_id,product_id,seller_id,unit_price,quantity)
	                   VALUES('u-ada','l-mei-lamp','p-lamp-001','u-mei',1.00,2)`)
	if err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	// Get CSRF token
	loginResp, _ := app.Test(httptest.NewRequest("GET", "/login", nil))
	csrfTok := extractCookieTotals(loginResp, "csrf_")
	if csrfTok == "" {
		t.Fatal("csrf token missing")
	}

	form := strings.NewReader("csrf=" + csrfTok)
	req := httptest.NewRequest("POST", "/cart/u-ada/checkout", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: csrfTok})
	req.AddCookie(&http.Cookie{Name: "sid", Value: "sid-ada"})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusFound {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected redirect on checkout, got %d body=%s", resp.StatusCode, body)
	}

	// Parse order id from redirect
	loc := resp.Header.Get("Location")
	if loc == "" {
		t.Fatal("no redirect location with order id")
	}
	parts := strings.Split(loc, "/")
	oid := parts[len(parts)-1]

	var total decimal.Decimal
	if err := db.Get(&total, `SELECT total_amount FROM orders WHERE id=?`, oid); err != nil {
		t.Fatalf("get order total: %v", err)
	}
	// Real price is 32.00 each; tampered client price must be ignored
	if !total.Equal(decimal.RequireFromString("64")) {
		t.Fatalf("order total not recomputed; got %s", total)
	}
}
