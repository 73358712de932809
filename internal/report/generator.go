package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fraud-sms/detector/internal/metrics"
	"github.com/fraud-sms/detector/internal/storage/models"
)

const (
	FileName = "fraud_sms_report.txt"

	title           = "AI Fraud SMS Detector - Report"
	separator       = "--------------------------------------------------"
	generatedLayout = "1/2/2006, 3:04:05 PM"
)

// Generate renders the history, newest first, as a plain-text report.
func Generate(entries []models.HistoryEntry, generatedAt time.Time) string {
	lines := []string{
		title,
		"Generated: " + generatedAt.Format(generatedLayout),
		separator,
		fmt.Sprintf("Total checks in history: %d", len(entries)),
		"",
	}

	for i, e := range entries {
		words := "None"
		if len(e.RiskyWords) > 0 {
			words = strings.Join(e.RiskyWords, ", ")
		}
		lines = append(lines,
			fmt.Sprintf("#%d  Time: %s", i+1, e.Timestamp),
			"Message: "+e.Message,
			"Prediction: "+e.Label,
			"Confidence: "+strconv.FormatFloat(e.ConfidencePercent, 'f', -1, 64)+"%",
			"Risky Words: "+words,
			separator,
		)
	}

	metrics.ReportsGenerated.Inc()
	return strings.Join(lines, "\n")
}

// WriteFile writes content to FileName under outputDir and returns the path.
func WriteFile(outputDir, content string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(outputDir, FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
