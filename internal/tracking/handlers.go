package tracking

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/workout", func(c *fiber.Ctx) error {
		return c.JSON(svc.Dashboard())
	})

	r.Post("/workout/start", func(c *fiber.Ctx) error {
		d, err := svc.Start(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(d)
	})

	r.Post("/workout/finish", func(c *fiber.Ctx) error {
		resp, err := svc.Finish(c.UserContext())
		if err != nil {
			return fiber.NewError(statusFor(err), err.Error())
		}
		return c.JSON(resp)
	})

	r.Post("/workout/slide", func(c *fiber.Ctx) error {
		var req SlideRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		resp, err := svc.Slide(req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(resp)
	})

	r.Post("/locations", func(c *fiber.Ctx) error {
		resp, err := svc.Ingest(bytes.NewReader(c.Body()))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(resp)
	})
}
