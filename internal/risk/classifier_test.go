package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fraud-sms/detector/internal/storage/models"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		label      string
		confidence float64
		want       Tier
	}{
		{"SAFE SMS", 100, Low},
		{"SAFE SMS", 95, Low},
		{"SAFE SMS", 94.999, Medium},
		{"SAFE SMS", 60.0001, Medium},
		{"SAFE SMS", 60, High},
		{"SAFE SMS", 59, High},
		{"safe - legit message", 97.5, Low},
		{"Unsafe?", 99, Low},
		{"FRAUD SMS", 100, Medium},
		{"FRAUD SMS", 95, Medium},
		{"FRAUD SMS", 94.999, Medium},
		{"FRAUD SMS", 60.0001, Medium},
		{"FRAUD SMS", 60, High},
		{"FRAUD SMS", 59, High},
		{"", 99, Medium},
		{"", 10, High},
		{"SAFE SMS", -5, High},
		{"SAFE SMS", 140, Low},
	}

	for _, tt := range tests {
		got := Classify(models.PredictionResult{Label: tt.label, ConfidencePercent: tt.confidence})
		assert.Equalf(t, tt.want, got, "Classify(%q, %v)", tt.label, tt.confidence)
	}
}

func TestClassifyMatchesRuleForSweep(t *testing.T) {
	labels := []string{"SAFE SMS", "FRAUD SMS", "sAfE", "fraud", "unknown", "SAFE but FRAUD"}
	for _, label := range labels {
		for c := -10.0; c <= 110; c += 0.25 {
			got := Classify(models.PredictionResult{Label: label, ConfidencePercent: c})

			isSafe := label == "SAFE SMS" || label == "sAfE" || label == "SAFE but FRAUD"
			var want Tier
			switch {
			case isSafe && c >= 95:
				want = Low
			case c > 60:
				want = Medium
			default:
				want = High
			}
			assert.Equalf(t, want, got, "Classify(%q, %v)", label, c)
		}
	}
}

func TestTierColorsAndLabels(t *testing.T) {
	assert.Equal(t, "rgba(0,255,180,0.95)", Low.Color())
	assert.Equal(t, "rgba(167,139,250,0.95)", Medium.Color())
	assert.Equal(t, "rgba(255,60,130,0.95)", High.Color())
	assert.Equal(t, "LOW RISK", Low.String())
	assert.Equal(t, "MEDIUM RISK", Medium.String())
	assert.Equal(t, "HIGH RISK", High.String())
	assert.Equal(t, "UNKNOWN RISK", Tier(7).String())
}

func TestIsFraudLikeIsIndependentOfTier(t *testing.T) {
	assert.True(t, IsFraudLike("FRAUD SMS"))
	assert.True(t, IsFraudLike("likely fraud"))
	assert.False(t, IsFraudLike("SAFE SMS"))

	result := models.PredictionResult{Label: "FRAUD SMS", ConfidencePercent: 99}
	assert.True(t, IsFraudLike(result.Label))
	assert.Equal(t, Medium, Classify(result))
}

func TestConfidenceWidth(t *testing.T) {
	assert.Equal(t, 0.0, ConfidenceWidth(-3))
	assert.Equal(t, 42.5, ConfidenceWidth(42.5))
	assert.Equal(t, 100.0, ConfidenceWidth(180))
	assert.Equal(t, 0.0, ConfidenceWidth(math.NaN()))
}

func TestFormatConfidence(t *testing.T) {
	assert.Equal(t, "97.50%", FormatConfidence(97.5))
	assert.Equal(t, "88.12%", FormatConfidence(88.123))
}

func TestAssess(t *testing.T) {
	a := Assess(models.PredictionResult{Label: "FRAUD SMS", ConfidencePercent: 120})

	assert.Equal(t, Medium, a.Tier)
	assert.Equal(t, "rgba(167,139,250,0.95)", a.TierColor)
	assert.True(t, a.FraudLike)
	assert.Equal(t, "rgba(255,60,130,0.8)", a.BadgeColor)
	assert.Equal(t, 100.0, a.ConfidenceWidth)
}
