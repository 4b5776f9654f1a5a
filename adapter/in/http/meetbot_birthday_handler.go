package http

import (
	"strings"
	"time"

	"meetbot_server/core/domain"
	"meetbot_server/core/port/out"
	"meetbot_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// BirthdayHandler is the admin CRUD surface for reminder records. Routes are
// registered behind the JWT auth middleware.
type BirthdayHandler struct {
	birthdays out.BirthdayRepository
}

// NewBirthdayHandler creates a new BirthdayHandler.
func NewBirthdayHandler(birthdays out.BirthdayRepository) *BirthdayHandler {
	return &BirthdayHandler{birthdays: birthdays}
}

func (h *BirthdayHandler) Register(app fiber.Router) {
	group := app.Group("/birthdays")
	group.Get("/", h.List)
	group.Post("/", h.Create)
	group.Delete("/:id", h.Delete)
}

func (h *BirthdayHandler) List(c *fiber.Ctx) error {
	records, err := h.birthdays.List(c.Context())
	if err != nil {
		logger.WithError(err).Error("[Birthday List] query failed")
		return ErrorResponse(c, fiber.StatusInternalServerError, "failed to list birthdays")
	}
	return SuccessResponse(c, fiber.Map{"birthdays": records, "count": len(records)})
}

type createBirthdayRequest struct {
	Name  string `json:"name"`
	Date  string `json:"date"`
	Phone string `json:"phone"`
}

func (h *BirthdayHandler) Create(c *fiber.Ctx) error {
	var req createBirthdayRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "invalid body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Phone == "" {
		return ErrorResponse(c, fiber.StatusBadRequest, "name and phone are required")
	}
	if _, err := time.Parse("02-01-2006", req.Date); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "date must be dd-mm-yyyy")
	}

	record := &domain.Birthday{
		Name:  req.Name,
		Date:  req.Date,
		Phone: domain.NormalizeUserID(req.Phone),
	}
	if err := h.birthdays.Create(c.Context(), record); err != nil {
		logger.WithError(err).Error("[Birthday Create] insert failed")
		return ErrorResponse(c, fiber.StatusInternalServerError, "failed to create birthday")
	}

	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Success:   true,
		Data:      record,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *BirthdayHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.birthdays.Delete(c.Context(), id); err != nil {
		logger.WithError(err).Warn("[Birthday Delete] failed for %s", id)
		return ErrorResponse(c, fiber.StatusNotFound, "birthday not found")
	}
	return SuccessResponse(c, fiber.Map{"deleted": id})
}
