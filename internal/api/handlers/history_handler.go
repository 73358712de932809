package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fraud-sms/detector/internal/report"
	"github.com/fraud-sms/detector/internal/risk"
	"github.com/fraud-sms/detector/internal/session"
	"github.com/fraud-sms/detector/pkg/logger"
)

type historyItem struct {
	Time              string   `json:"time"`
	Message           string   `json:"message"`
	Prediction        string   `json:"prediction"`
	Confidence        float64  `json:"confidence"`
	ConfidenceDisplay string   `json:"confidence_display"`
	RiskyWords        []string `json:"risky_words"`
	IsFraud           bool     `json:"is_fraud"`
	BadgeColor        string   `json:"badge_color"`
}

type HistoryHandler struct {
	detector  *session.Detector
	outputDir string
	now       func() time.Time
}

func NewHistoryHandler(detector *session.Detector, outputDir string, now func() time.Time) *HistoryHandler {
	if now == nil {
		now = time.Now
	}
	return &HistoryHandler{
		detector:  detector,
		outputDir: outputDir,
		now:       now,
	}
}

func (h *HistoryHandler) List(c *fiber.Ctx) error {
	entries := h.detector.History()

	items := make([]historyItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, historyItem{
			Time:              e.Timestamp,
			Message:           e.Message,
			Prediction:        e.Label,
			Confidence:        e.ConfidencePercent,
			ConfidenceDisplay: risk.FormatConfidence(e.ConfidencePercent),
			RiskyWords:        e.RiskyWords,
			IsFraud:           risk.IsFraudLike(e.Label),
			BadgeColor:        risk.BadgeColor(e.Label),
		})
	}

	return c.JSON(fiber.Map{
		"history": items,
		"total":   len(items),
	})
}

func (h *HistoryHandler) Clear(c *fiber.Ctx) error {
	h.detector.ClearHistory(c.UserContext())
	return c.JSON(fiber.Map{
		"history": []historyItem{},
		"total":   0,
	})
}

// DownloadReport streams the report as a text attachment.
func (h *HistoryHandler) DownloadReport(c *fiber.Ctx) error {
	content := report.Generate(h.detector.History(), h.now())

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", report.FileName))
	return c.SendString(content)
}

// SaveReport writes the report into the configured output directory.
func (h *HistoryHandler) SaveReport(c *fiber.Ctx) error {
	content := report.Generate(h.detector.History(), h.now())

	path, err := report.WriteFile(h.outputDir, content)
	if err != nil {
		logger.Error("Failed to save report", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save report",
		})
	}

	logger.Info("Report saved", zap.String("path", path))
	return c.JSON(fiber.Map{
		"path": path,
	})
}
