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
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	html "github.com/gofiber/template/html/v2"

	"bazaar/internal/http/handlers"
	"bazaar/internal/repos"
	"bazaar/internal/services"
)

type authLogLine struct {
	Level  string                 `json:"level"`
	Action string                 `json:"action"`
	Fields map[string]interface{} `json:"fields"`
}

type syncedBuf struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncedBuf) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncedBuf) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// collectAuthLogs runs fn with the standard logger swapped for a buffer and
// returns every line that parses as a structured entry. Flags are cleared so
// the timestamp prefix does not break json.Unmarshal.
func collectAuthLogs(t *testing.T, fn func()) []authLogLine {
	t.Helper()
	var sink syncedBuf
	oldW, oldFlags := log.Writer(), log.Flags()
	log.SetOutput(&sink)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var lines []authLogLine
	for _, raw := range strings.Split(sink.String(), "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		var line authLogLine
		if err := json.Unmarshal([]byte(raw), &line); err == nil {
			lines = append(lines, line)
		}
	}
	return lines
}

func findAction(lines []authLogLine, action string) (authLogLine, bool) {
	for _, l := range lines {
		if l.Action == action {
			return l, true
		}
	}
	return authLogLine{}, false
}

// Both login outcomes emit a structured entry carrying the email.
func TestAuthLogging(t *testing.T) {
	db, err := repos.OpenDB(":memory:", true)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	authSvc := &services.AuthService{Users: repos.NewUserRepo(db)}
	authH := &handlers.AuthHandler{Auth: authSvc}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax"}))
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{Max: 100, Expiration: time.Minute}), authH.Login)

	respForm, _ := app.Test(httptest.NewRequest("GET", "/login", nil))
	csrfTok := cookieVal(respForm, "csrf_")
	if csrfTok == "" {
		t.Fatal("csrf token missing")
	}

	attempt := func(email, pass string) []authLogLine {
		return collectAuthLogs(t, func() {
			form := strings.NewReader("csrf=" + csrfTok + "&email=" + email + "&password=" + pass)
			req := httptest.NewRequest("POST", "/login", form)
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.AddCookie(&http.Cookie{Name: "csrf_", Value: csrfTok})
			_, _ = app.Test(req)
		})
	}

	fail, ok := findAction(attempt("ada@bazaar.test", "Badpass1!"), "auth.login.fail")
	if !ok {
		t.Fatal("auth.login.fail entry not found")
	}
	if _, has := fail.Fields["email"]; !has {
		t.Fatal("auth.login.fail entry missing email field")
	}

	success, ok := findAction(attempt("ada@bazaar.test", "Passw0rd!"), "auth.login.success")
	if !ok {
		t.Fatal("auth.login.success entry not found")
	}
	if _, has := success.Fields["email"]; !has {
		t.Fatal("auth.login.success entry missing email field")
	}
}
