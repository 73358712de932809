package models

// PredictionResult is one verdict returned by the classification service. Label is free
// text ("FRAUD SMS", "SAFE SMS", ...); ConfidencePercent is nominally 0-100 but not clamped.
type PredictionResult struct {
	Label             string   `json:"prediction"`
	ConfidencePercent float64  `json:"confidence"`
	RiskyWords        []string `json:"risky_words"`
}

// HistoryEntry is a persisted check. Entries are created once and never mutated.
type HistoryEntry struct {
	Timestamp         string   `json:"time"`
	Message           string   `json:"message"`
	Label             string   `json:"prediction"`
	ConfidencePercent float64  `json:"confidence"`
	RiskyWords        []string `json:"risky_words"`
}

// NewHistoryEntry copies the result fields verbatim.
func NewHistoryEntry(timestamp, message string, result PredictionResult) HistoryEntry {
	words := make([]string, len(result.RiskyWords))
	copy(words, result.RiskyWords)

	return HistoryEntry{
		Timestamp:         timestamp,
		Message:           message,
		Label:             result.Label,
		ConfidencePercent: result.ConfidencePercent,
		RiskyWords:        words,
	}
}

// Class indexes rows (actual) and columns (predicted) of a confusion matrix.
type Class int

const (
	ClassSafe  Class = 0
	ClassFraud Class = 1
)

// MetricsSnapshot is the aggregate model evaluation served by the classification service.
// ConfusionMatrix[actual][predicted]: [0][0]=TN, [0][1]=FP, [1][0]=FN, [1][1]=TP.
type MetricsSnapshot struct {
	AccuracyPercent float64   `json:"accuracy"`
	ConfusionMatrix [2][2]int `json:"confusion_matrix"`
	Labels          []string  `json:"labels"`
}

func (m MetricsSnapshot) Count(actual, predicted Class) int {
	return m.ConfusionMatrix[actual][predicted]
}

func (m MetricsSnapshot) TN() int { return m.Count(ClassSafe, ClassSafe) }
func (m MetricsSnapshot) FP() int { return m.Count(ClassSafe, ClassFraud) }
func (m MetricsSnapshot) FN() int { return m.Count(ClassFraud, ClassSafe) }
func (m MetricsSnapshot) TP() int { return m.Count(ClassFraud, ClassFraud) }

func (m MetricsSnapshot) Total() int {
	return m.TN() + m.FP() + m.FN() + m.TP()
}

// Precision is TP/(TP+FP) for the fraud class, 0 when nothing was predicted fraud.
func (m MetricsSnapshot) Precision() float64 {
	denom := m.TP() + m.FP()
	if denom == 0 {
		return 0
	}
	return float64(m.TP()) / float64(denom)
}

// Recall is TP/(TP+FN) for the fraud class, 0 when there are no actual fraud samples.
func (m MetricsSnapshot) Recall() float64 {
	denom := m.TP() + m.FN()
	if denom == 0 {
		return 0
	}
	return float64(m.TP()) / float64(denom)
}
