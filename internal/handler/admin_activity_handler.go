package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/evalhub/evalhub-api/internal/dto"
	"github.com/evalhub/evalhub-api/internal/service"
	"github.com/evalhub/evalhub-api/internal/utils"
)

// AdminActivityHandler exposes the audit trail to administrators.
type AdminActivityHandler struct {
	activity service.ActivityService
	logger   zerolog.Logger
}

// NewAdminActivityHandler builds the activity handler.
func NewAdminActivityHandler(activity service.ActivityService, logger zerolog.Logger) *AdminActivityHandler {
	return &AdminActivityHandler{
		activity: activity,
		logger:   logger.With().Str("component", "admin_activity_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AdminActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *AdminActivityHandler) list(c *fiber.Ctx) error {
	var req dto.AdminActivityListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	response, err := h.activity.List(c.UserContext(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list activity logs")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "activity logs retrieved", response)
}
