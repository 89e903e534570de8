package domain

// FileUpload is a PDF attached to a chat request.
type FileUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ChatRequest is one inbound chat turn.
type ChatRequest struct {
	Message   string
	SessionID string
	File      *FileUpload
}

// ChartConfig describes how to render a recommended chart.
type ChartConfig struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	XAxis  string `json:"x_axis,omitempty"`
	YAxis  string `json:"y_axis,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ChartAnalysis reports whether a result set is chartable and, if so, how.
// AutoChart is only populated when the provider judged the data chartable;
// its absence means the caller must fall back to tabular display.
type ChartAnalysis struct {
	Chartable       bool             `json:"chartable"`
	Reasoning       string           `json:"reasoning,omitempty"`
	AutoChart       *ChartConfig     `json:"auto_chart,omitempty"`
	SuggestedCharts []map[string]any `json:"suggested_charts,omitempty"`
}

// UnifiedResponse is the single response shape returned for every chat
// turn, regardless of which backend produced it. Answer and SessionID are
// always populated; the optional fields belong to specific backends and
// are never set for the wrong label.
type UnifiedResponse struct {
	Backend       Backend          `json:"backend"`
	Answer        string           `json:"answer"`
	SessionID     string           `json:"session_id"`
	Tags          []string         `json:"tags,omitempty"`
	Data          []map[string]any `json:"data,omitempty"`
	SQLQuery      string           `json:"sql_query,omitempty"`
	ChartAnalysis *ChartAnalysis   `json:"chart_analysis,omitempty"`
	RecordCount   *int             `json:"record_count,omitempty"`
	Error         string           `json:"error,omitempty"`
}
