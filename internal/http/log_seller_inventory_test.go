package handlers_test

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"bazaar/internal/config"
	"bazaar/internal/http/handlers"
	"bazaar/internal/repos"
	"bazaar/internal/services"
)

type sellerLogEntry struct {
	Action string                 `json:"action"`
	Fields map[string]interface{} `json:"fields"`
}

type lockedBufSeller struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBufSeller) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureSellerLogs(t *testing.T, fn func()) []sellerLogEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBufSeller{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []sellerLogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e sellerLogEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func extractCookieSeller(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// Seller inventory changes are audit logged
func TestSellerInventoryLogs(t *testing.T) {
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
	app.Use(requestid.New())
	app.Use(limiter.New(limiter.Config{Max: 100, Expiration: 0}))
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax"}))

	deps := handlers.NewDeps(db, cfg, authSvc)
	seller := app.Group("/seller", handlers.RequireSeller(authSvc))
	seller.Post("/inventory", deps.SellerHandler.SaveOffer)
	app.Get("/login", authH.LoginForm)

	// Bind seller session
	if err := userRepo.BindSession("sid-mei", "u-mei"); err != nil {
		t.Fatalf("bind seller session: %v", err)
	}

	// get csrf token
	respLogin, _ := app.Test(httptest.NewRequest("GET", "/login", nil))
	csrfTok := extractCookieSeller(respLogin, "csrf_")
	if csrfTok == "" {
		t.Fatal("csrf token missing")
	}

	entries := captureSellerLogs(t, func() {
		form := strings.NewReader("csrf=" + csrfTok + "&product_id=p-lamp-001&price=31.00&quantity=9&is_active=1")
		req := httptest.NewRequest("POST", "/seller/inventory", form)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: "csrf_", Value: csrfTok})
		req.AddCookie(&http.Cookie{Name: "sid", Value: "sid-mei"})
		_, _ = app.Test(req)
	})

	found := false
	for _, e := range entries {
		if e.Action == "seller.inventory.save" {
			found = true
			if _, ok := e.Fields["product"]; !ok {
				t.Fatalf("seller.inventory.save missing product")
			}
			if _, ok := e.Fields["qty"]; !ok {
				t.Fatalf("seller.inventory.save missing qty")
			}
			if _, ok := e.Fields["active"]; !ok {
				t.Fatalf("seller.inventory.save missing active")
			}
		}
	}
	if !found {
		t.Fatalf("seller.inventory.save log not found")
	}
}
