package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/fraud-sms/detector/internal/session"
	"github.com/fraud-sms/detector/pkg/logger"
)

type wsFrame struct {
	Type    string             `json:"type"`
	Content string             `json:"content,omitempty"`
	Error   string             `json:"error,omitempty"`
	Check   *session.CheckView `json:"check,omitempty"`
}

type WebSocketHandler struct {
	detector *session.Detector
}

func NewWebSocketHandler(detector *session.Detector) *WebSocketHandler {
	return &WebSocketHandler{
		detector: detector,
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}

		err := c.ReadJSON(&msg)
		if err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "check" {
			continue
		}

		err = h.runCheck(context.Background(), msg.Content, func(f wsFrame) error {
			return c.WriteJSON(f)
		})
		if err != nil {
			logger.Error("Failed to write WebSocket frame", zap.Error(err))
			break
		}
	}
}

// runCheck sends a status frame, runs the check, then sends a result or error frame.
func (h *WebSocketHandler) runCheck(ctx context.Context, message string, send func(wsFrame) error) error {
	if err := send(wsFrame{Type: "status", Content: "Checking message..."}); err != nil {
		return err
	}

	err := h.detector.Submit(ctx, message)
	switch {
	case errors.Is(err, session.ErrBlankMessage):
		return send(wsFrame{Type: "error", Error: "Message is required"})
	case errors.Is(err, session.ErrSubmissionInFlight):
		return send(wsFrame{Type: "error", Error: "A check is already in progress"})
	case err != nil:
		return send(wsFrame{Type: "error", Error: "Failed to submit check"})
	}

	view := h.detector.Snapshot()
	if view.State == session.CheckFailed {
		return send(wsFrame{Type: "error", Error: view.Error, Check: &view})
	}
	return send(wsFrame{Type: "result", Check: &view})
}
