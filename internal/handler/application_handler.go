package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campuslife/activity-api/internal/dto"
	"github.com/campuslife/activity-api/internal/service"
	"github.com/campuslife/activity-api/internal/utils"
)

// ApplicationHandler exposes the application lifecycle endpoints.
type ApplicationHandler struct {
	service service.ApplicationService
	logger  zerolog.Logger
}

// NewApplicationHandler constructs a handler instance.
func NewApplicationHandler(service service.ApplicationService, logger zerolog.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		service: service,
		logger:  logger.With().Str("component", "application_handler").Logger(),
	}
}

// Register binds the application routes.
func (h *ApplicationHandler) Register(router fiber.Router) {
	router.Post("/", h.submit)
	router.Get("/mine", h.listMine)
	router.Get("/activity/:id", h.listForActivity)
	router.Get("/:id", h.get)
	router.Patch("/:id/status", h.setStatus)
	router.Post("/:id/attendance", h.markAttendance)
	router.Delete("/:id", h.remove)
}

func (h *ApplicationHandler) submit(c *fiber.Ctx) error {
	var payload dto.ApplicationSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Submit(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "application submitted", response)
}

func (h *ApplicationHandler) listMine(c *fiber.Ctx) error {
	actor := actorFromContext(c)

	response, err := h.service.ListForStudent(requestContext(c), actor.ID, actor)
	if err != nil {
		return sendServiceError(c, err)
	}

	return utils.SendSuccess(c, "applications", response)
}

func (h *ApplicationHandler) listForActivity(c *fiber.Ctx) error {
	activityID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid activity id")
	}

	response, err := h.service.ListForActivity(requestContext(c), activityID, actorFromContext(c))
	if err != nil {
		return sendServiceError(c, err)
	}

	return utils.SendSuccess(c, "applications", response)
}

func (h *ApplicationHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid application id")
	}

	response, err := h.service.Get(requestContext(c), id, actorFromContext(c))
	if err != nil {
		return sendServiceError(c, err)
	}

	return utils.SendSuccess(c, "application", response)
}

func (h *ApplicationHandler) setStatus(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid application id")
	}

	var payload dto.ApplicationDecisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.SetStatus(requestContext(c), id, payload, actorFromContext(c))
	if err != nil {
		return sendServiceError(c, err)
	}

	return utils.SendSuccess(c, "application status updated", response)
}

func (h *ApplicationHandler) markAttendance(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid application id")
	}

	response, err := h.service.MarkAttendance(requestContext(c), id, actorFromContext(c))
	if err != nil {
		return sendServiceError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attendance recorded", response)
}

func (h *ApplicationHandler) remove(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid application id")
	}

	if err := h.service.Delete(requestContext(c), id, actorFromContext(c)); err != nil {
		return sendServiceError(c, err)
	}

	return utils.SendSuccess(c, "application deleted", nil)
}
