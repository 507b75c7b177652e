package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wichananm65/service-market-backend/internal/cursor"
	"github.com/wichananm65/service-market-backend/internal/industry"
	"github.com/wichananm65/service-market-backend/internal/user"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/guest/services", h.searchGuest)
	app.Get("/api/v1/feed/services/:userId<[0-9]+>", h.searchFeed)
	app.Get("/api/v1/service/:id<[0-9]+>", h.getService)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/services", h.searchForUser)
	app.Get("/api/v1/services/me", h.listOwn)
	app.Post("/api/v1/services", h.createService)
	app.Put("/api/v1/service/:id<[0-9]+>", h.updateService)
	app.Delete("/api/v1/service/:id<[0-9]+>", h.deleteService)
	app.Put("/api/v1/service/:id<[0-9]+>/publish", h.setPublished)
	app.Put("/api/v1/service/:id<[0-9]+>/location", h.setLocation)
	app.Put("/api/v1/service/:id<[0-9]+>/plans", h.setPlans)
	app.Post("/api/v1/service/:id<[0-9]+>/images", h.uploadImage)
}

// parseSearchRequest reads the query-string shape shared by all listing
// endpoints: term, industries (comma-separated ids), lat/lon(/radius),
// pageSize and cursor.
func parseSearchRequest(c *fiber.Ctx) (SearchRequest, error) {
	req := SearchRequest{
		Term:   c.Query("term"),
		Cursor: c.Query("cursor"),
	}

	if raw := c.Query("industries"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil || id <= 0 {
				return SearchRequest{}, fiber.NewError(fiber.StatusBadRequest, "invalid industries parameter")
			}
			req.IndustryIDs = append(req.IndustryIDs, id)
		}
	}

	if ps := c.Query("pageSize"); ps != "" {
		v, err := strconv.Atoi(ps)
		if err != nil || v <= 0 {
			return SearchRequest{}, fiber.NewError(fiber.StatusBadRequest, "invalid pageSize")
		}
		req.PageSize = v
	}

	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr != "" || lonStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lon, errLon := strconv.ParseFloat(lonStr, 64)
		if errLat != nil || errLon != nil {
			return SearchRequest{}, fiber.NewError(fiber.StatusBadRequest, "invalid lat/lon")
		}
		req.Geo = &GeoPoint{Lat: lat, Lon: lon}
		if rad := c.Query("radiusKm"); rad != "" {
			v, err := strconv.ParseFloat(rad, 64)
			if err != nil || v <= 0 {
				return SearchRequest{}, fiber.NewError(fiber.StatusBadRequest, "invalid radiusKm")
			}
			req.RadiusKM = v
		}
	}

	return req, nil
}

func (h *Handler) respondSearch(c *fiber.Ctx, result SearchResult, err error) error {
	if err != nil {
		switch err {
		case ErrEmptyServiceIndustries:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "EMPTY_SERVICE_INDUSTRIES",
				"message": err.Error(),
			})
		case cursor.ErrInvalidCursor:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "INVALID_CURSOR",
				"message": err.Error(),
			})
		case industry.ErrNotFound:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "user not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}
	return c.JSON(result)
}

func (h *Handler) searchForUser(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	req, err := parseSearchRequest(c)
	if err != nil {
		return err
	}
	result, err := h.service.SearchForUser(userID, req)
	return h.respondSearch(c, result, err)
}

func (h *Handler) searchGuest(c *fiber.Ctx) error {
	req, err := parseSearchRequest(c)
	if err != nil {
		return err
	}
	result, err := h.service.SearchGuest(req)
	return h.respondSearch(c, result, err)
}

func (h *Handler) searchFeed(c *fiber.Ctx) error {
	targetID, err := strconv.Atoi(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid userId"})
	}
	req, err := parseSearchRequest(c)
	if err != nil {
		return err
	}
	result, err := h.service.SearchFeed(targetID, req)
	return h.respondSearch(c, result, err)
}

func (h *Handler) listOwn(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	req, err := parseSearchRequest(c)
	if err != nil {
		return err
	}
	result, err := h.service.ListOwn(userID, req)
	return h.respondSearch(c, result, err)
}

func (h *Handler) getService(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}
	l, err := h.service.GetByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("Service not found")
	}
	return c.JSON(l)
}

type listingPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IndustryID  int    `json:"industryId"`
	Published   bool   `json:"published"`
	Plans       []Plan `json:"plans"`
}

func validateListingPayload(p *listingPayload) map[string]string {
	errs := map[string]string{}
	if p.Title == "" {
		errs["title"] = "title is required"
	}
	if p.IndustryID <= 0 {
		errs["industryId"] = "industryId is required"
	}
	for _, plan := range p.Plans {
		if plan.Name == "" {
			errs["plans"] = "planName is required"
		}
		if plan.Price < 0 {
			errs["plans"] = "price must be >= 0"
		}
	}
	return errs
}

func (h *Handler) createService(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	p := new(listingPayload)
	if err := c.BodyParser(p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if ves := validateListingPayload(p); len(ves) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": ves})
	}

	now := time.Now().UTC().Format(time.RFC3339)
	created, err := h.service.Create(Listing{
		OwnerID:     userID,
		Title:       p.Title,
		Description: p.Description,
		IndustryID:  p.IndustryID,
		Published:   p.Published,
		Plans:       p.Plans,
		CreatedAt:   &now,
		UpdatedAt:   &now,
	})
	if err != nil {
		if err == ErrInvalidListing {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) updateService(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	p := new(listingPayload)
	if err := c.BodyParser(p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if ves := validateListingPayload(p); len(ves) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": ves})
	}

	now := time.Now().UTC().Format(time.RFC3339)
	updated, err := h.service.Update(id, userID, Listing{
		Title:       p.Title,
		Description: p.Description,
		IndustryID:  p.IndustryID,
		Published:   p.Published,
		Plans:       p.Plans,
		UpdatedAt:   &now,
	})
	if err != nil {
		return h.mutationError(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) deleteService(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.service.Delete(id, userID); err != nil {
		return h.mutationError(c, err)
	}
	return c.SendString("Service deleted")
}

func (h *Handler) setPublished(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	payload := struct {
		Published bool `json:"published"`
	}{}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.service.SetPublished(id, userID, payload.Published); err != nil {
		return h.mutationError(c, err)
	}
	return c.JSON(fiber.Map{"serviceId": id, "published": payload.Published})
}

func (h *Handler) setLocation(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	payload := struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}{}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Lat == nil || payload.Lon == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "lat and lon are required"})
	}
	if err := h.service.SetLocation(id, userID, *payload.Lat, *payload.Lon); err != nil {
		return h.mutationError(c, err)
	}
	return c.JSON(fiber.Map{"serviceId": id, "lat": *payload.Lat, "lon": *payload.Lon})
}

func (h *Handler) setPlans(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	var plans []Plan
	if err := c.BodyParser(&plans); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.service.SetPlans(id, userID, plans); err != nil {
		return h.mutationError(c, err)
	}
	return c.JSON(fiber.Map{"serviceId": id, "plans": plans})
}

func (h *Handler) uploadImage(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "file is required"})
	}

	path := "/uploads/services/" + uuid.NewString() + "_" + file.Filename
	if err := c.SaveFile(file, "."+path); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}

	if err := h.service.AddImage(id, userID, path); err != nil {
		return h.mutationError(c, err)
	}
	return c.JSON(fiber.Map{"serviceId": id, "image": path})
}

func (h *Handler) mutationError(c *fiber.Ctx, err error) error {
	switch err {
	case ErrNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "service not found"})
	case ErrNotOwner:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "service belongs to another user"})
	case ErrInvalidListing:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
