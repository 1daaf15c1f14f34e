package tracking

import (
	"errors"

	"travlysis/internal/tripstats"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/sessions", authMiddleware, func(c *fiber.Ctx) error {
		var req Session
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.UserID == "" {
			if uid, ok := c.Locals("user_id").(string); ok {
				req.UserID = uid
			}
		}
		if req.UserID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		session, err := svc.StartSession(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	r.Post("/sessions/:id/points", authMiddleware, func(c *fiber.Ctx) error {
		var req TrackPoint
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		result, err := svc.AddPoint(c.Context(), c.Params("id"), req)
		if err != nil {
			return statusFor(err)
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	})

	r.Get("/sessions/:id/summary", func(c *fiber.Ctx) error {
		summary, err := svc.Summary(c.Context(), c.Params("id"))
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(summary)
	})

	r.Get("/sessions/:id/points", func(c *fiber.Ctx) error {
		points, err := svc.Points(c.Context(), c.Params("id"))
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(points)
	})

	r.Delete("/sessions/:id", authMiddleware, func(c *fiber.Ctx) error {
		summary, err := svc.StopSession(c.Context(), c.Params("id"))
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(summary)
	})
}

func statusFor(err error) error {
	var fixErr *tripstats.InvalidFixError
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.As(err, &fixErr):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
