package exporter

import (
	"fmt"
	"time"
)

// formatFloat formats a float64 value for export with four decimal places,
// enough to round-trip thresholds and predicted returns legibly.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.4f", f)
}

// formatInt formats an int64 value for export
func formatInt(i int64) string {
	return fmt.Sprintf("%d", i)
}

// formatDate renders an optional timestamp as an ISO date, empty when unset.
func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
