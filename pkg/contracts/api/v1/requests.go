// Package api contains API contract definitions for the equity analysis
// service. Version v1 represents the current stable API version.
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"equitycli/pkg/contracts/domain"
)

// Job statuses accepted as list filters.
var validJobStatuses = map[string]bool{
	"pending":   true,
	"running":   true,
	"completed": true,
	"failed":    true,
	"cancelled": true,
}

// JobListRequest represents the query parameters of a job listing request.
type JobListRequest struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// maxJobListLimit caps how many jobs one listing returns.
const maxJobListLimit = 500

// ParseJobListRequest extracts and validates listing parameters from the
// request query.
func ParseJobListRequest(r *http.Request) (JobListRequest, error) {
	req := JobListRequest{Limit: 100}

	if status := r.URL.Query().Get("status"); status != "" {
		if !validJobStatuses[status] {
			return req, fmt.Errorf("invalid status filter %q", status)
		}
		req.Status = status
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxJobListLimit {
			return req, fmt.Errorf("limit must be an integer between 1 and %d", maxJobListLimit)
		}
		req.Limit = limit
	}

	return req, nil
}

// AnalyzeResponseMeta summarizes one analysis run in job listings without
// carrying the full report.
type AnalyzeResponseMeta struct {
	Source      string `json:"source,omitempty"`
	ModelKind   string `json:"model_kind"`
	Instruments int    `json:"instruments"`
	Succeeded   int    `json:"succeeded"`
}

// SummarizeReport condenses a report into listing metadata.
func SummarizeReport(report *domain.AnalysisReport) AnalyzeResponseMeta {
	meta := AnalyzeResponseMeta{
		Source:      report.Meta.Source,
		ModelKind:   report.Meta.ModelKind,
		Instruments: len(report.Results),
	}
	for _, result := range report.Results {
		if result.Status == domain.StatusSuccess {
			meta.Succeeded++
		}
	}
	return meta
}
