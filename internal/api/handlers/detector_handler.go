package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fraud-sms/detector/internal/session"
	"github.com/fraud-sms/detector/pkg/logger"
)

type DetectorHandler struct {
	detector *session.Detector
}

func NewDetectorHandler(detector *session.Detector) *DetectorHandler {
	return &DetectorHandler{
		detector: detector,
	}
}

// Check runs a check and answers with the detector state once it settles. Service
// failures come back as 200 with the failed state and its message.
func (h *DetectorHandler) Check(c *fiber.Ctx) error {
	var req struct {
		Message string `json:"message"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	err := h.detector.Submit(c.UserContext(), req.Message)
	switch {
	case errors.Is(err, session.ErrBlankMessage):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is required",
		})
	case errors.Is(err, session.ErrSubmissionInFlight):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A check is already in progress",
		})
	case err != nil:
		logger.Error("Failed to submit check", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to submit check",
		})
	}

	return c.JSON(h.detector.Snapshot())
}

func (h *DetectorHandler) GetCheck(c *fiber.Ctx) error {
	return c.JSON(h.detector.Snapshot())
}

func (h *DetectorHandler) ClearCheck(c *fiber.Ctx) error {
	h.detector.ClearAll()
	return c.JSON(h.detector.Snapshot())
}
