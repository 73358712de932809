package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fraud-sms/detector/internal/history"
	"github.com/fraud-sms/detector/internal/metrics"
	"github.com/fraud-sms/detector/internal/remote"
	"github.com/fraud-sms/detector/internal/risk"
	"github.com/fraud-sms/detector/internal/storage/models"
	"github.com/fraud-sms/detector/pkg/logger"
	"github.com/fraud-sms/detector/pkg/utils"
)

var (
	ErrBlankMessage       = errors.New("message is blank")
	ErrSubmissionInFlight = errors.New("a check is already in progress")
)

const (
	checkFallbackMessage = "Something went wrong"

	// TimestampLayout renders capture times the way the history panel shows them.
	TimestampLayout = "1/2/2006, 3:04:05 PM"
)

type CheckState int

const (
	CheckIdle CheckState = iota
	CheckSubmitting
	CheckSucceeded
	CheckFailed
)

func (s CheckState) String() string {
	switch s {
	case CheckIdle:
		return "idle"
	case CheckSubmitting:
		return "submitting"
	case CheckSucceeded:
		return "succeeded"
	case CheckFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s CheckState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckView is a point-in-time copy of the detector state.
type CheckView struct {
	State      CheckState               `json:"state"`
	Message    string                   `json:"message"`
	Result     *models.PredictionResult `json:"result"`
	Assessment *risk.Assessment         `json:"assessment"`
	Error      string                   `json:"error"`
}

// Detector runs one check at a time: Idle -> Submitting -> Succeeded|Failed.
type Detector struct {
	classifier remote.Classifier
	history    *history.Store
	now        func() time.Time

	mu      sync.Mutex
	state   CheckState
	message string
	result  *models.PredictionResult
	errMsg  string
}

func NewDetector(classifier remote.Classifier, store *history.Store, now func() time.Time) *Detector {
	if now == nil {
		now = time.Now
	}
	return &Detector{
		classifier: classifier,
		history:    store,
		now:        now,
	}
}

// Submit checks message against the classification service. It returns ErrBlankMessage
// or ErrSubmissionInFlight when the submission is refused. Service failures are not
// returned; they become the detector's error state.
func (d *Detector) Submit(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		metrics.RejectedSubmissions.WithLabelValues("blank").Inc()
		return ErrBlankMessage
	}

	d.mu.Lock()
	if d.state == CheckSubmitting {
		d.mu.Unlock()
		metrics.RejectedSubmissions.WithLabelValues("in_flight").Inc()
		return ErrSubmissionInFlight
	}
	d.state = CheckSubmitting
	d.message = message
	d.result = nil
	d.errMsg = ""
	d.mu.Unlock()

	checkID := uuid.New().String()
	logger.Info("Checking SMS",
		zap.String("check_id", checkID),
		zap.String("message_hash", utils.HashString(message)),
	)

	result, err := d.classifier.Predict(ctx, message)
	if err != nil {
		msg := remote.UserMessage(err, checkFallbackMessage)

		d.mu.Lock()
		d.state = CheckFailed
		d.errMsg = msg
		d.mu.Unlock()

		metrics.ChecksTotal.WithLabelValues("failed").Inc()
		logger.Warn("SMS check failed", zap.String("check_id", checkID), zap.Error(err))
		return nil
	}

	entry := models.NewHistoryEntry(d.now().Format(TimestampLayout), message, *result)
	d.history.Append(context.WithoutCancel(ctx), entry)

	tier := risk.Classify(*result)

	d.mu.Lock()
	d.state = CheckSucceeded
	d.result = result
	d.mu.Unlock()

	metrics.ChecksTotal.WithLabelValues("succeeded").Inc()
	metrics.ChecksByTier.WithLabelValues(tier.String()).Inc()
	metrics.ConfidenceScore.Observe(risk.ConfidenceWidth(result.ConfidencePercent))
	logger.Info("SMS checked",
		zap.String("check_id", checkID),
		zap.String("prediction", result.Label),
		zap.Float64("confidence", result.ConfidencePercent),
		zap.String("risk_level", tier.String()),
		zap.Int("risky_words", len(result.RiskyWords)),
	)

	return nil
}

// ClearAll resets the detector to Idle. History is untouched. A check still in flight
// keeps the detector in Submitting.
func (d *Detector) ClearAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.message = ""
	d.result = nil
	d.errMsg = ""
	if d.state != CheckSubmitting {
		d.state = CheckIdle
	}
}

func (d *Detector) ClearHistory(ctx context.Context) {
	d.history.Clear(ctx)
	logger.Info("History cleared")
}

func (d *Detector) History() []models.HistoryEntry {
	return d.history.Entries()
}

func (d *Detector) Snapshot() CheckView {
	d.mu.Lock()
	defer d.mu.Unlock()

	view := CheckView{
		State:   d.state,
		Message: d.message,
		Error:   d.errMsg,
	}
	if d.result != nil {
		result := *d.result
		result.RiskyWords = append([]string{}, d.result.RiskyWords...)
		assessment := risk.Assess(result)
		view.Result = &result
		view.Assessment = &assessment
	}
	return view
}
