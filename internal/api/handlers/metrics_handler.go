package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fraud-sms/detector/internal/session"
)

type matrixCells struct {
	TN        int     `json:"tn"`
	FP        int     `json:"fp"`
	FN        int     `json:"fn"`
	TP        int     `json:"tp"`
	Total     int     `json:"total"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

type metricsResponse struct {
	session.MetricsView
	Matrix *matrixCells `json:"matrix,omitempty"`
}

type ModelMetricsHandler struct {
	metrics *session.Metrics
}

func NewModelMetricsHandler(metrics *session.Metrics) *ModelMetricsHandler {
	return &ModelMetricsHandler{
		metrics: metrics,
	}
}

// Get is the view-entry path: it fetches only when nothing is held yet.
func (h *ModelMetricsHandler) Get(c *fiber.Ctx) error {
	h.metrics.Activate(c.UserContext())
	return c.JSON(newMetricsResponse(h.metrics.Snapshot()))
}

func (h *ModelMetricsHandler) Refresh(c *fiber.Ctx) error {
	h.metrics.Refresh(c.UserContext())
	return c.JSON(newMetricsResponse(h.metrics.Snapshot()))
}

func newMetricsResponse(view session.MetricsView) metricsResponse {
	resp := metricsResponse{MetricsView: view}
	if s := view.Snapshot; s != nil {
		resp.Matrix = &matrixCells{
			TN:        s.TN(),
			FP:        s.FP(),
			FN:        s.FN(),
			TP:        s.TP(),
			Total:     s.Total(),
			Precision: s.Precision(),
			Recall:    s.Recall(),
		}
	}
	return resp
}
