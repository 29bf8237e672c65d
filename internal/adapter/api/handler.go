package api

import (
	"context"
	"errors"
	"reco-core/internal/domain/entity"
	"reco-core/internal/metrics"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Recommender produces a ranked, explained list for one user.
type Recommender interface {
	Recommend(ctx context.Context, userID string) (*entity.RecommendationResponse, error)
}

type RecommendHandler struct {
	recommender Recommender
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewRecommendHandler(r Recommender, logger zerolog.Logger) *RecommendHandler {
	return &RecommendHandler{
		recommender: r,
		validate:    validator.New(),
		logger:      logger,
	}
}

func (h *RecommendHandler) HandleRecommend(c *fiber.Ctx) error {
	start := time.Now()
	defer func() { metrics.RecommendDuration.Observe(time.Since(start).Seconds()) }()

	var req entity.RecommendationRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid_body", "invalid request body")
	}

	req.Normalize()
	if err := h.validate.Struct(req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid_user", entity.ErrMissingUserID.Error())
	}

	// The Delivery layer maps the business error to HTTP status codes
	resp, err := h.recommender.Recommend(c.UserContext(), req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrMissingUserID):
			return h.fail(c, fiber.StatusBadRequest, "invalid_user", err.Error())
		case errors.Is(err, entity.ErrRateLimitExceeded):
			return h.fail(c, fiber.StatusTooManyRequests, "rate_limited", err.Error())
		case errors.Is(err, entity.ErrNoInteractions):
			return h.fail(c, fiber.StatusNotFound, "unknown_user", err.Error())
		}
		h.logger.Error().Err(err).
			Str("request_id", requestID(c)).
			Str("user_id", req.UserID).
			Msg("recommendation failed")
		return h.fail(c, fiber.StatusInternalServerError, "error", err.Error())
	}

	metrics.RecommendRequests.WithLabelValues("ok").Inc()
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *RecommendHandler) fail(c *fiber.Ctx, status int, outcome, msg string) error {
	metrics.RecommendRequests.WithLabelValues(outcome).Inc()
	return c.Status(status).JSON(entity.ErrorResponse{Error: msg})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
