package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fraud-sms/detector/internal/metrics"
	"github.com/fraud-sms/detector/internal/storage/models"
	"github.com/fraud-sms/detector/pkg/circuitbreaker"
	"github.com/fraud-sms/detector/pkg/logger"
	"github.com/fraud-sms/detector/pkg/utils"
)

const (
	opPredict = "predict"
	opMetrics = "metrics"

	maxResponseBytes = 1 << 20
)

// Classifier is the contract the session controllers depend on.
type Classifier interface {
	Predict(ctx context.Context, message string) (*models.PredictionResult, error)
	FetchMetrics(ctx context.Context) (*models.MetricsSnapshot, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
}

type Options struct {
	Timeout          time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HTTPClient       *http.Client
}

var _ Classifier = (*Client)(nil)

// NewClient builds a client for the service at baseURL. A zero Timeout leaves requests
// unbounded. A zero FailureThreshold disables the circuit breaker.
func NewClient(baseURL string, opts Options) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("classification service base URL required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}

	if opts.FailureThreshold > 0 {
		c.cb = circuitbreaker.NewCircuitBreaker("classifier", circuitbreaker.Config{
			MaxRequests:      1,
			Timeout:          opts.OpenTimeout,
			FailureThreshold: opts.FailureThreshold,
			SuccessThreshold: 1,
			IsFailure: func(err error) bool {
				var svcErr *ServiceError
				return errors.As(err, &svcErr) && svcErr.Kind == KindTransport
			},
			Logger: logger.GetLogger(),
		})
	}

	logger.Info("Classification client initialized",
		zap.String("base_url", baseURL),
		zap.Duration("timeout", httpClient.Timeout),
		zap.Bool("circuit_breaker", c.cb != nil),
	)

	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Predict(ctx context.Context, message string) (*models.PredictionResult, error) {
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return nil, &ServiceError{Op: opPredict, Kind: KindTransport, Message: PredictUnavailableMessage, Err: err}
	}

	logger.Debug("Requesting prediction",
		zap.String("message_hash", utils.HashString(message)),
		zap.Int("message_len", len(message)),
	)

	var wire struct {
		Prediction *string  `json:"prediction"`
		Confidence *float64 `json:"confidence"`
		RiskyWords []string `json:"risky_words"`
	}

	err = c.call(ctx, opPredict, http.MethodPost, "/predict", body, PredictUnavailableMessage, func(raw []byte) error {
		if err := json.Unmarshal(raw, &wire); err != nil {
			return err
		}
		if wire.Prediction == nil || wire.Confidence == nil {
			return errors.New("missing prediction or confidence")
		}
		if _, ok := presentKeys(raw)["risky_words"]; !ok {
			return errors.New("missing risky_words")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &models.PredictionResult{
		Label:             *wire.Prediction,
		ConfidencePercent: *wire.Confidence,
		RiskyWords:        []string{},
	}
	if wire.RiskyWords != nil {
		result.RiskyWords = wire.RiskyWords
	}

	return result, nil
}

func (c *Client) FetchMetrics(ctx context.Context) (*models.MetricsSnapshot, error) {
	var wire struct {
		Accuracy        *float64 `json:"accuracy"`
		ConfusionMatrix [][]int  `json:"confusion_matrix"`
		Labels          []string `json:"labels"`
	}

	err := c.call(ctx, opMetrics, http.MethodGet, "/metrics", nil, MetricsUnavailableMessage, func(raw []byte) error {
		if err := json.Unmarshal(raw, &wire); err != nil {
			return err
		}
		if wire.Accuracy == nil {
			return errors.New("missing accuracy")
		}
		if len(wire.ConfusionMatrix) != 2 || len(wire.ConfusionMatrix[0]) != 2 || len(wire.ConfusionMatrix[1]) != 2 {
			return fmt.Errorf("confusion matrix must be 2x2, got %d rows", len(wire.ConfusionMatrix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snapshot := &models.MetricsSnapshot{
		AccuracyPercent: *wire.Accuracy,
		Labels:          wire.Labels,
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			snapshot.ConfusionMatrix[i][j] = wire.ConfusionMatrix[i][j]
		}
	}
	if snapshot.Labels == nil {
		snapshot.Labels = []string{}
	}

	return snapshot, nil
}

// call performs exactly one HTTP exchange and hands a 2xx body to decode.
func (c *Client) call(ctx context.Context, op, method, path string, body []byte, unavailable string, decode func([]byte) error) error {
	start := time.Now()
	defer func() {
		metrics.RemoteRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	exchange := func() error {
		return c.exchange(ctx, op, method, path, body, unavailable, decode)
	}

	var err error
	if c.cb != nil {
		err = c.cb.Execute(ctx, exchange)
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			err = &ServiceError{Op: op, Kind: KindTransport, Message: unavailable, Err: err}
		}
	} else {
		err = exchange()
	}

	if err != nil {
		var svcErr *ServiceError
		if !errors.As(err, &svcErr) {
			svcErr = &ServiceError{Op: op, Kind: KindTransport, Message: unavailable, Err: err}
			err = svcErr
		}
		metrics.RemoteErrors.WithLabelValues(op, svcErr.Kind.String()).Inc()
		logger.Warn("Classification service call failed",
			zap.String("operation", op),
			zap.String("kind", svcErr.Kind.String()),
			zap.Int("status", svcErr.Status),
			zap.Error(svcErr.Err),
		)
	}

	return err
}

func (c *Client) exchange(ctx context.Context, op, method, path string, body []byte, unavailable string, decode func([]byte) error) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &ServiceError{Op: op, Kind: KindTransport, Message: unavailable, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ServiceError{Op: op, Kind: KindTransport, Message: unavailable, Err: fmt.Errorf("failed to reach classification service: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return &ServiceError{
			Op:      op,
			Kind:    KindTransport,
			Message: unavailable,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("classification service returned status %d", resp.StatusCode),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &ServiceError{Op: op, Kind: KindTransport, Message: unavailable, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if err := decode(raw); err != nil {
		return &ServiceError{Op: op, Kind: KindMalformed, Message: MalformedResponseMessage, Status: resp.StatusCode, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	logger.Debug("Classification service call completed",
		zap.String("operation", op),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
	)

	return nil
}

func presentKeys(raw []byte) map[string]json.RawMessage {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil
	}
	return keys
}
