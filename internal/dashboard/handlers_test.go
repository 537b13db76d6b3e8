package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"velocity/internal/api"

	"github.com/gofiber/fiber/v2"
)

type stubBackend struct {
	health  map[string]any
	feed    []api.ActivityResponse
	feedErr error
}

func (b *stubBackend) CheckHealth(context.Context) map[string]any { return b.health }

func (b *stubBackend) FetchFeed(context.Context) ([]api.ActivityResponse, error) {
	return b.feed, b.feedErr
}

func get(t *testing.T, app *fiber.App, path string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func TestHistoryRoute(t *testing.T) {
	app := fiber.New()
	lister := &stubLister{items: []api.ActivityResponse{}}
	RegisterRoutes(app, NewHistory(lister, 1, nil), &stubBackend{})

	var view HistoryView
	if code := get(t, app, "/history", &view); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if view.EmptyText != EmptyHistoryText || view.Loading {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestHistoryRouteError(t *testing.T) {
	app := fiber.New()
	lister := &stubLister{err: errors.New("fetch failed: 503")}
	RegisterRoutes(app, NewHistory(lister, 1, nil), &stubBackend{})

	var view HistoryView
	if code := get(t, app, "/history", &view); code != http.StatusOK {
		t.Fatalf("fetch errors belong in the view, got %d", code)
	}
	if view.Error != "fetch failed: 503" {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestFeedRoute(t *testing.T) {
	app := fiber.New()
	backend := &stubBackend{feed: []api.ActivityResponse{{Name: "Club Run", DistanceKm: 10, MovingTimeSeconds: 3000}}}
	RegisterRoutes(app, NewHistory(&stubLister{}, 1, nil), backend)

	var items []HistoryItem
	if code := get(t, app, "/history/feed", &items); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(items) != 1 || items[0].Pace != "5:00" || items[0].Minutes != 50 {
		t.Fatalf("unexpected items %+v", items)
	}

	backend.feedErr = errors.New("fetch failed: 500")
	if code := get(t, app, "/history/feed", nil); code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", code)
	}
}

func TestBackendHealthRoute(t *testing.T) {
	app := fiber.New()
	backend := &stubBackend{health: map[string]any{"status": "ok"}}
	RegisterRoutes(app, NewHistory(&stubLister{}, 1, nil), backend)

	var body map[string]any
	get(t, app, "/backend/health", &body)
	inner, _ := body["backend"].(map[string]any)
	if inner["status"] != "ok" {
		t.Fatalf("unexpected body %v", body)
	}

	backend.health = nil
	body = nil
	get(t, app, "/backend/health", &body)
	if v, ok := body["backend"]; !ok || v != nil {
		t.Fatalf("expected null backend, got %v", body)
	}
}
