package catalog

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// helper to build an app with a simple "bootstrap" middleware that injects a
// jwt.Token into locals when the X-User-ID header is provided. This avoids
// pulling in the full jwtware middleware and keeps tests lightweight.
func makeApp(h *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			id, err := strconv.Atoi(v)
			if err == nil {
				claims := jwt.MapClaims{"user_id": id}
				tok := &jwt.Token{Claims: claims}
				c.Locals("user", tok)
			}
		}
		return c.Next()
	})
	h.RegisterPublicRoutes(app)
	h.RegisterProtectedRoutes(app)
	return app
}

func TestGuestSearchEndpoint(t *testing.T) {
	repo := NewInMemoryRepository(seedListings(3))
	h := NewHandler(NewService(repo, &prefsStub{}))
	app := makeApp(h)

	req := httptest.NewRequest("GET", "/api/v1/guest/services?industries=1,2,3&pageSize=2", nil)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	var body SearchResult
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(body.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(body.Items))
	}
	if body.NextCursor == nil {
		t.Fatal("expected a next cursor for the first page")
	}
}

func TestGuestSearchEmptyScopeError(t *testing.T) {
	h := NewHandler(NewService(NewInMemoryRepository(nil), &prefsStub{}))
	app := makeApp(h)

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/guest/services", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), "EMPTY_SERVICE_INDUSTRIES") {
		t.Fatalf("expected EMPTY_SERVICE_INDUSTRIES code, got %s", b)
	}
}

func TestSearchEndpointRequiresAuth(t *testing.T) {
	h := NewHandler(NewService(NewInMemoryRepository(nil), &prefsStub{}))
	app := makeApp(h)

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/services?term=paint", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", res.StatusCode)
	}
}

func TestCreateAndUpdateServiceEndpoints(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	h := NewHandler(NewService(repo, &prefsStub{}))
	app := makeApp(h)

	payload := `{"title":"Wedding photography","description":"full day","industryId":2,"published":true,"plans":[{"planName":"basic","price":5000}]}`
	req := httptest.NewRequest("POST", "/api/v1/services", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "7")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if res.StatusCode != fiber.StatusCreated {
		b, _ := io.ReadAll(res.Body)
		t.Fatalf("expected 201, got %d: %s", res.StatusCode, b)
	}

	var created Listing
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatalf("bad create response: %v", err)
	}
	if created.OwnerID != 7 || created.ID == 0 {
		t.Fatalf("unexpected created listing %+v", created)
	}

	// another user must not be able to update it
	upd := `{"title":"Taken over","industryId":2}`
	req2 := httptest.NewRequest("PUT", "/api/v1/service/"+strconv.Itoa(created.ID), strings.NewReader(upd))
	req2.Header.Set("Content-Type", "application/json")
	req2.Header.Set("X-User-ID", "8")
	res2, err := app.Test(req2)
	if err != nil {
		t.Fatalf("update request failed: %v", err)
	}
	if res2.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for foreign update, got %d", res2.StatusCode)
	}
}
