package survey

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Survey
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if uid, ok := c.Locals("user_id").(string); ok && req.UserID == "" {
			req.UserID = uid
		}
		receipt, err := svc.Submit(c.Context(), req)
		if err != nil {
			if errors.Is(err, ErrInvalidSurvey) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(receipt)
	})

	r.Post("/confirm", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			SessionIDs []string `json:"session_ids"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		confirmation, err := svc.Confirm(c.Context(), body.SessionIDs)
		if err != nil {
			if errors.Is(err, ErrInvalidSurvey) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(confirmation)
	})
}
