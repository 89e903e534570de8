package router

import (
	"fmt"

	"github.com/lendfront/unirouter/internal/backend"
	"github.com/lendfront/unirouter/internal/domain"
)

// Normalize maps a provider's raw payload onto the unified response
// shape. It is a pure per-label projection: fields that do not belong
// to the label stay empty, whatever the provider sent.
func Normalize(label domain.Backend, raw *backend.RawResult, sessionID string) *domain.UnifiedResponse {
	resp := &domain.UnifiedResponse{
		Backend:   label,
		SessionID: sessionID,
	}

	switch label {
	case domain.BackendKnowledge:
		resp.Answer = raw.Answer
		resp.Tags = dedupeTags(raw.Tags)

	case domain.BackendDocument, domain.BackendDatabase, domain.BackendScopeGuard:
		resp.Answer = raw.Answer

	case domain.BackendVisualization:
		normalizeVisualization(resp, raw)
	}
	return resp
}

// normalizeVisualization composes the visualization answer and carries
// over the data payload. A populated raw.Error is an agent-level
// failure: the answer reports it, but data already retrieved still
// flows through.
func normalizeVisualization(resp *domain.UnifiedResponse, raw *backend.RawResult) {
	resp.Data = raw.Data
	resp.SQLQuery = raw.SQLQuery
	resp.ChartAnalysis = sanitizeChartAnalysis(raw.ChartAnalysis)
	if len(raw.Data) > 0 {
		n := len(raw.Data)
		resp.RecordCount = &n
	}

	if raw.Error != "" {
		resp.Error = raw.Error
		resp.Answer = "Visualization Error: " + raw.Error
		return
	}

	resp.Answer = fmt.Sprintf("Query executed successfully. Retrieved %d records.", len(raw.Data))
	if resp.ChartAnalysis != nil && resp.ChartAnalysis.Chartable {
		chartType := "N/A"
		if resp.ChartAnalysis.AutoChart != nil {
			chartType = resp.ChartAnalysis.AutoChart.Type
		}
		resp.Answer += fmt.Sprintf(" Chart type: %s", chartType)
	}
}

// sanitizeChartAnalysis drops an auto-chart the provider attached to
// data it itself judged unchartable. The recommendation is surfaced
// verbatim otherwise, never fabricated.
func sanitizeChartAnalysis(ca *domain.ChartAnalysis) *domain.ChartAnalysis {
	if ca == nil {
		return nil
	}
	if !ca.Chartable && ca.AutoChart != nil {
		clean := *ca
		clean.AutoChart = nil
		return &clean
	}
	return ca
}

// dedupeTags removes duplicate topic tags, keeping first-seen order.
// Empty input normalizes to nil so the field is omitted from JSON.
func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
