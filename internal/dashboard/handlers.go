package dashboard

import (
	"context"

	"velocity/internal/api"

	"github.com/gofiber/fiber/v2"
)

type Backend interface {
	CheckHealth(ctx context.Context) map[string]any
	FetchFeed(ctx context.Context) ([]api.ActivityResponse, error)
}

func RegisterRoutes(r fiber.Router, history *History, backend Backend) {
	r.Get("/history", func(c *fiber.Ctx) error {
		return c.JSON(history.Load(c.UserContext()))
	})

	r.Get("/history/feed", func(c *fiber.Ctx) error {
		activities, err := backend.FetchFeed(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		items := make([]HistoryItem, 0, len(activities))
		for _, a := range activities {
			items = append(items, NewHistoryItem(a))
		}
		return c.JSON(items)
	})

	r.Get("/backend/health", func(c *fiber.Ctx) error {
		// a nil map encodes as null, which is what callers check for
		return c.JSON(fiber.Map{"backend": backend.CheckHealth(c.UserContext())})
	})
}
