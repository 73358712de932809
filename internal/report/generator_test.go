package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraud-sms/detector/internal/storage/models"
)

var generatedAt = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func TestGenerateEmptyHistory(t *testing.T) {
	got := Generate(nil, generatedAt)

	want := strings.Join([]string{
		"AI Fraud SMS Detector - Report",
		"Generated: 10/17/2026, 9:30:00 AM",
		separator,
		"Total checks in history: 0",
		"",
	}, "\n")
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "#1")
}

func TestGenerateSafeEntryWithoutRiskyWords(t *testing.T) {
	entries := []models.HistoryEntry{{
		Timestamp:         "10/17/2026, 9:00:00 AM",
		Message:           "See you at lunch",
		Label:             "SAFE - legit message",
		ConfidencePercent: 97.5,
		RiskyWords:        []string{},
	}}

	got := Generate(entries, generatedAt)

	assert.Contains(t, got, "Total checks in history: 1")
	assert.Contains(t, got, "#1  Time: 10/17/2026, 9:00:00 AM\n")
	assert.Contains(t, got, "Confidence: 97.5%\n")
	assert.True(t, strings.HasSuffix(got, "Risky Words: None\n"+separator))
}

func TestGenerateOrderAndFormatting(t *testing.T) {
	entries := []models.HistoryEntry{
		{
			Timestamp:         "10/17/2026, 9:10:00 AM",
			Message:           "Your parcel is held, pay fee now",
			Label:             "FRAUD SMS",
			ConfidencePercent: 88.123456,
			RiskyWords:        []string{"parcel", "pay", "fee"},
		},
		{
			Timestamp:         "10/17/2026, 9:00:00 AM",
			Message:           "ok",
			Label:             "SAFE SMS",
			ConfidencePercent: 100,
		},
	}

	got := Generate(entries, generatedAt)
	lines := strings.Split(got, "\n")

	require.Len(t, lines, 5+2*6)
	assert.Equal(t, "#1  Time: 10/17/2026, 9:10:00 AM", lines[5])
	assert.Equal(t, "Message: Your parcel is held, pay fee now", lines[6])
	assert.Equal(t, "Prediction: FRAUD SMS", lines[7])
	assert.Equal(t, "Confidence: 88.123456%", lines[8])
	assert.Equal(t, "Risky Words: parcel, pay, fee", lines[9])
	assert.Equal(t, separator, lines[10])
	assert.Equal(t, "#2  Time: 10/17/2026, 9:00:00 AM", lines[11])
	assert.Equal(t, "Confidence: 100%", lines[14])
	assert.Equal(t, "Risky Words: None", lines[15])
}

func TestGenerateIsDeterministic(t *testing.T) {
	entries := []models.HistoryEntry{{Timestamp: "t", Message: "m", Label: "SAFE", ConfidencePercent: 50}}
	assert.Equal(t, Generate(entries, generatedAt), Generate(entries, generatedAt))
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := WriteFile(dir, "hello")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "fraud_sms_report.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}
