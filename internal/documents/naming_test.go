package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testUUID = "4e1dcf9d-d266-4e29-9fcd-aa36f5a8f8ab"

func TestFileName(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		docName  string
		want     string
	}{
		{"uuid strategy ignores name", NamingStrategyUUID, "Quarterly Report", testUUID + ".pdf"},
		{"sanitize keeps plain names", NamingStrategySanitize, "Quarterly Report", "Quarterly Report.pdf"},
		{"sanitize strips reserved characters", NamingStrategySanitize, `a/b\c:d*e?f"g<h>i|j`, "abcdefghij.pdf"},
		{"sanitize strips control characters", NamingStrategySanitize, "re\tport\n", "report.pdf"},
		{"sanitize trims whitespace", NamingStrategySanitize, "  report  ", "report.pdf"},
		{"slugify", NamingStrategySlugify, "Quarterly Report (2024)", "quarterly-report-2024.pdf"},
		{"unknown strategy behaves like sanitize", "fancy", "Quarterly Report", "Quarterly Report.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FileName(tt.strategy, tt.docName, testUUID, FormatPDF)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileNameEmptyFallsBackToUUID(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		docName  string
	}{
		{"sanitize of empty name", NamingStrategySanitize, ""},
		{"sanitize of reserved-only name", NamingStrategySanitize, `\/:*?`},
		{"slugify of empty name", NamingStrategySlugify, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FileName(tt.strategy, tt.docName, testUUID, FormatHTML)
			assert.Equal(t, testUUID+".html", got)
		})
	}
}
