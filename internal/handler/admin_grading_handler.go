package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/evalhub/evalhub-api/internal/dto"
	"github.com/evalhub/evalhub-api/internal/service"
	"github.com/evalhub/evalhub-api/internal/utils"
)

// AdminGradingHandler exposes grading and challenge resolution to administrators.
type AdminGradingHandler struct {
	evaluations service.EvaluationService
	challenges  service.ChallengeService
	logger      zerolog.Logger
}

// NewAdminGradingHandler builds the admin grading handler.
func NewAdminGradingHandler(evaluations service.EvaluationService, challenges service.ChallengeService, logger zerolog.Logger) *AdminGradingHandler {
	return &AdminGradingHandler{
		evaluations: evaluations,
		challenges:  challenges,
		logger:      logger.With().Str("component", "admin_grading_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AdminGradingHandler) Register(router fiber.Router) {
	router.Post("/:id/evaluate", h.evaluate)
	router.Post("/:id/feedback-draft", h.feedbackDraft)
	router.Patch("/:id/challenge", h.respondChallenge)
}

func (h *AdminGradingHandler) evaluate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EvaluateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.evaluations.Evaluate(c.UserContext(), principalFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission evaluated", submission)
}

func (h *AdminGradingHandler) feedbackDraft(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	draft, err := h.evaluations.SuggestFeedback(c.UserContext(), principalFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "feedback draft generated", fiber.Map{"feedback": draft})
}

func (h *AdminGradingHandler) respondChallenge(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ChallengeRespondRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.challenges.Respond(c.UserContext(), principalFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "challenge response recorded", submission)
}

func (h *AdminGradingHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrNoPendingChallenge):
		return utils.SendError(c, fiber.StatusConflict, "no open challenge on this submission")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
