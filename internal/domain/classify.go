package domain

// DecisionSource records how a classification was reached.
type DecisionSource string

const (
	// SourceForcedByFile means an attached file forced the document label
	// without consulting the model.
	SourceForcedByFile DecisionSource = "forced-by-file"
	// SourceModel means the label came from the language model.
	SourceModel DecisionSource = "model"
	// SourceFallback means classification failed and degraded to scope_guard.
	SourceFallback DecisionSource = "fallback"
)

// ClassificationResult is the outcome of classifying one query.
type ClassificationResult struct {
	Backend   Backend        `json:"backend"`
	Reasoning string         `json:"reasoning,omitempty"`
	Source    DecisionSource `json:"source"`
}
