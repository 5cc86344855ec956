package proxy

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"kairos-gateway/internal/engine"
)

func newApp(baseURL string, timeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		var ae *engine.AppError
		if errors.As(err, &ae) {
			return c.Status(ae.Status).JSON(engine.ErrorResponse{Error: ae})
		}
		return c.Status(500).SendString(err.Error())
	}})
	app.Post("/api/login", func(c *fiber.Ctx) error { return c.SendString("gateway") })
	Register(app, Forward(baseURL, timeout, zap.NewNop()))
	return app
}

func TestForward_PreservesMethodPathAndBody(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ck, _ := r.Cookie("sid")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(201)
		_, _ = io.WriteString(w, r.Method+" "+r.URL.RequestURI()+" "+string(body)+" "+ck.Value)
	}))
	defer backend.Close()

	app := newApp(backend.URL, 2*time.Second)
	req := httptest.NewRequest("PUT", "/api/resource/Student/EDU-STU-0001?x=1", strings.NewReader(`{"first_name":"Asha"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	got, _ := io.ReadAll(resp.Body)
	want := `PUT /api/resource/Student/EDU-STU-0001?x=1 {"first_name":"Asha"} abc`
	if resp.StatusCode != 201 || string(got) != want {
		t.Fatalf("got %d %q, want 201 %q", resp.StatusCode, got, want)
	}
}

func TestForward_GatewayRoutesNotForwarded(t *testing.T) {
	app := newApp("http://127.0.0.1:1", time.Second)
	resp, err := app.Test(httptest.NewRequest("POST", "/api/login", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "gateway" {
		t.Fatalf("login must be served by the gateway, got %q", body)
	}
}

func TestForward_BackendUnavailable(t *testing.T) {
	app := newApp("http://127.0.0.1:1", time.Second)
	resp, err := app.Test(httptest.NewRequest("GET", "/api/method/frappe.auth.get_logged_user", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 502 {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}
