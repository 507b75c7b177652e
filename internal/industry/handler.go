package industry

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/service-market-backend/internal/user"
)

// Handler exposes the industry catalog and per-user preference routes.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	// guest view of the catalog; every row comes back unselected
	app.Get("/api/v1/industries", h.getIndustries)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/preferences", h.getPreferences)
	app.Put("/api/v1/preferences", h.syncPreferences)
}

func (h *Handler) getIndustries(c *fiber.Ctx) error {
	views, err := h.service.GetGuestPreferences()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(views)
}

func (h *Handler) getPreferences(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	views, err := h.service.GetPreferences(userID)
	if err != nil {
		switch err {
		case ErrNotFound:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "user not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}
	return c.JSON(views)
}

func (h *Handler) syncPreferences(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	var desired []Selection
	if err := c.BodyParser(&desired); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	for _, sel := range desired {
		if sel.IndustryID <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid industryId"})
		}
	}

	views, err := h.service.SynchronizePreferences(userID, desired)
	if err != nil {
		switch err {
		case ErrNotFound:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "user not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}
	return c.JSON(views)
}
