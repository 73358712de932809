package validation

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	CheckPath           string
	MaxMessageLength    int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware rejects request bodies of an unexpected type and check submissions whose
// message is missing, not a string, or longer than MaxMessageLength characters. Blank
// messages pass through; the detector refuses them itself.
func Middleware(cfg Config) fiber.Handler {
	if cfg.CheckPath == "" {
		cfg.CheckPath = "/api/v1/check"
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = 5000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{fiber.MIMEApplicationJSON}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		contentType := c.Get(fiber.HeaderContentType)
		if len(c.Body()) > 0 && !allowedType(contentType, cfg.AllowedContentTypes) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported content type",
			})
		}

		if c.Path() != cfg.CheckPath || c.Method() != fiber.MethodPost {
			return c.Next()
		}

		var req map[string]json.RawMessage
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		var message string
		raw, ok := req["message"]
		if !ok || json.Unmarshal(raw, &message) != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Message is required and must be a string",
			})
		}

		if n := utf8.RuneCountInString(message); n > cfg.MaxMessageLength {
			cfg.Logger.Warn("Oversized check message rejected",
				zap.String("ip", c.IP()),
				zap.Int("length", n),
				zap.Int("max_length", cfg.MaxMessageLength),
			)
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error": "Message exceeds maximum length",
			})
		}

		return c.Next()
	}
}

func allowedType(contentType string, allowed []string) bool {
	contentType = strings.ToLower(contentType)
	for _, t := range allowed {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}
