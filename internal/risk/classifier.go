// Package risk derives presentation state from a prediction: the client-side risk tier,
// its color, the fraud badge, and the confidence bar width.
package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/fraud-sms/detector/internal/storage/models"
)

type Tier int

const (
	Low Tier = iota
	Medium
	High
)

const (
	lowMinConfidence    = 95.0
	mediumMinConfidence = 60.0
)

var tierColors = [...]string{
	Low:    "rgba(0,255,180,0.95)",
	Medium: "rgba(167,139,250,0.95)",
	High:   "rgba(255,60,130,0.95)",
}

var tierLabels = [...]string{
	Low:    "LOW RISK",
	Medium: "MEDIUM RISK",
	High:   "HIGH RISK",
}

const (
	fraudBadgeColor = "rgba(255,60,130,0.8)"
	safeBadgeColor  = "rgba(0,255,180,0.8)"
)

func (t Tier) String() string {
	if t < Low || t > High {
		return "UNKNOWN RISK"
	}
	return tierLabels[t]
}

func (t Tier) Color() string {
	if t < Low || t > High {
		return ""
	}
	return tierColors[t]
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Classify applies the rules in order: SAFE label with confidence >= 95 is Low, any
// confidence above 60 is Medium, everything else is High. A FRAUD label has no branch of
// its own; it only reaches a tier through the confidence thresholds.
func Classify(result models.PredictionResult) Tier {
	if strings.Contains(strings.ToUpper(result.Label), "SAFE") && result.ConfidencePercent >= lowMinConfidence {
		return Low
	}
	if result.ConfidencePercent > mediumMinConfidence {
		return Medium
	}
	return High
}

// IsFraudLike drives badge styling and is independent of the tier.
func IsFraudLike(label string) bool {
	return strings.Contains(strings.ToUpper(label), "FRAUD")
}

func BadgeColor(label string) string {
	if IsFraudLike(label) {
		return fraudBadgeColor
	}
	return safeBadgeColor
}

// ConfidenceWidth clamps confidence to [0,100] for the confidence bar.
func ConfidenceWidth(confidence float64) float64 {
	if math.IsNaN(confidence) || confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return confidence
}

// FormatConfidence renders confidence with two decimals, as the history list shows it.
func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%.2f%%", confidence)
}

type Assessment struct {
	Tier            Tier    `json:"risk_level"`
	TierColor       string  `json:"risk_color"`
	FraudLike       bool    `json:"is_fraud"`
	BadgeColor      string  `json:"badge_color"`
	ConfidenceWidth float64 `json:"confidence_width"`
}

func Assess(result models.PredictionResult) Assessment {
	tier := Classify(result)
	return Assessment{
		Tier:            tier,
		TierColor:       tier.Color(),
		FraudLike:       IsFraudLike(result.Label),
		BadgeColor:      BadgeColor(result.Label),
		ConfidenceWidth: ConfidenceWidth(result.ConfidencePercent),
	}
}
