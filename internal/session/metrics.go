package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/fraud-sms/detector/internal/metrics"
	"github.com/fraud-sms/detector/internal/remote"
	"github.com/fraud-sms/detector/internal/storage/models"
	"github.com/fraud-sms/detector/pkg/logger"
)

const metricsFallbackMessage = "Metrics error"

type MetricsState int

const (
	MetricsUnloaded MetricsState = iota
	MetricsLoading
	MetricsLoaded
	MetricsFailed
)

func (s MetricsState) String() string {
	switch s {
	case MetricsUnloaded:
		return "unloaded"
	case MetricsLoading:
		return "loading"
	case MetricsLoaded:
		return "loaded"
	case MetricsFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s MetricsState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type MetricsView struct {
	State    MetricsState            `json:"state"`
	Snapshot *models.MetricsSnapshot `json:"snapshot"`
	Error    string                  `json:"error"`
	Loading  bool                    `json:"loading"`
}

// Metrics holds the model metrics for the current session. Nothing is persisted.
type Metrics struct {
	classifier remote.Classifier

	mu       sync.Mutex
	inFlight int
	lastDone MetricsState
	snapshot *models.MetricsSnapshot
	errMsg   string
}

func NewMetrics(classifier remote.Classifier) *Metrics {
	return &Metrics{
		classifier: classifier,
		lastDone:   MetricsUnloaded,
	}
}

// Activate is called when the metrics view becomes active. It fetches only when no
// snapshot is held and no fetch is in flight, and reports whether it fetched.
func (m *Metrics) Activate(ctx context.Context) bool {
	m.mu.Lock()
	if m.snapshot != nil || m.inFlight > 0 {
		m.mu.Unlock()
		return false
	}
	m.beginLocked()
	m.mu.Unlock()

	m.fetch(ctx, "activate")
	return true
}

// Refresh always fetches, even while another fetch is outstanding. The last fetch to
// complete decides the final state.
func (m *Metrics) Refresh(ctx context.Context) {
	m.mu.Lock()
	m.beginLocked()
	m.mu.Unlock()

	m.fetch(ctx, "refresh")
}

func (m *Metrics) beginLocked() {
	m.inFlight++
	m.errMsg = ""
}

func (m *Metrics) fetch(ctx context.Context, trigger string) {
	snapshot, err := m.classifier.FetchMetrics(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.inFlight--
	if err != nil {
		m.errMsg = remote.UserMessage(err, metricsFallbackMessage)
		m.lastDone = MetricsFailed
		metrics.ModelMetricsFetches.WithLabelValues(trigger, "failed").Inc()
		logger.Warn("Model metrics fetch failed",
			zap.String("trigger", trigger),
			zap.Bool("snapshot_retained", m.snapshot != nil),
			zap.Error(err),
		)
		return
	}

	m.snapshot = snapshot
	m.errMsg = ""
	m.lastDone = MetricsLoaded
	metrics.ModelMetricsFetches.WithLabelValues(trigger, "loaded").Inc()
	logger.Info("Model metrics loaded",
		zap.String("trigger", trigger),
		zap.Float64("accuracy", snapshot.AccuracyPercent),
	)
}

func (m *Metrics) Snapshot() MetricsView {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := MetricsView{
		State:   m.lastDone,
		Error:   m.errMsg,
		Loading: m.inFlight > 0,
	}
	if view.Loading {
		view.State = MetricsLoading
	}
	if m.snapshot != nil {
		s := *m.snapshot
		s.Labels = append([]string{}, m.snapshot.Labels...)
		view.Snapshot = &s
	}
	return view
}
