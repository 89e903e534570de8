// Package classifier decides which capability label applies to a query.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lendfront/unirouter/internal/backend"
	"github.com/lendfront/unirouter/internal/domain"
	"github.com/lendfront/unirouter/internal/llm"
	"github.com/lendfront/unirouter/internal/logging"
)

// Classifier maps a raw query to a capability label. It is stateless:
// each turn is classified independently, without session history, which
// keeps routing decisions explainable and reproducible.
type Classifier struct {
	client  llm.Client
	policy  backend.Policy
	timeout time.Duration
	log     *logging.Logger
}

// New creates a classifier over the given model client. Classification
// retries transient model failures under the shared policy but never
// fails the chat turn: any residual error degrades to scope_guard.
func New(client llm.Client, policy backend.Policy, timeout time.Duration, log *logging.Logger) *Classifier {
	// Model hiccups of any kind are worth another attempt here; only a
	// cancelled caller stops the retries.
	policy.Retryable = func(err error) bool {
		return !errors.Is(err, context.Canceled)
	}
	return &Classifier{
		client:  client,
		policy:  policy,
		timeout: timeout,
		log:     log.Sub("classifier"),
	}
}

// Classify returns the capability label for a query. An attached file is
// an unambiguous, higher-priority signal: it forces the document label
// without consulting the model.
func (c *Classifier) Classify(ctx context.Context, text string, hasFile bool) domain.ClassificationResult {
	if hasFile {
		return domain.ClassificationResult{
			Backend:   domain.BackendDocument,
			Reasoning: "file attached",
			Source:    domain.SourceForcedByFile,
		}
	}

	var raw string
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		out, err := c.client.Complete(callCtx, buildPrompt(text, hasFile))
		if err != nil {
			return err
		}
		raw = out
		return nil
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("classification failed, falling back to scope_guard")
		return domain.ClassificationResult{
			Backend:   domain.BackendScopeGuard,
			Reasoning: "classification unavailable: " + err.Error(),
			Source:    domain.SourceFallback,
		}
	}

	label, ok := parseLabel(raw)
	if !ok {
		c.log.Warn().Str("output", truncate(raw, 120)).Msg("unrecognized classification output")
		return domain.ClassificationResult{
			Backend:   domain.BackendScopeGuard,
			Reasoning: "unrecognized category: " + truncate(raw, 120),
			Source:    domain.SourceFallback,
		}
	}

	c.log.Debug().Str("backend", label.String()).Msg("query classified")
	return domain.ClassificationResult{
		Backend:   label,
		Reasoning: strings.TrimSpace(raw),
		Source:    domain.SourceModel,
	}
}

// parseLabel maps noisy model output onto the closed label set. Checks
// run from most to least specific so partial matches resolve sanely.
func parseLabel(raw string) (domain.Backend, bool) {
	category := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(category, "visualization"), strings.Contains(category, "visualize"):
		return domain.BackendVisualization, true
	case strings.Contains(category, "out"), strings.Contains(category, "scope"):
		return domain.BackendScopeGuard, true
	case strings.Contains(category, "document"):
		return domain.BackendDocument, true
	case strings.Contains(category, "database"):
		return domain.BackendDatabase, true
	case strings.Contains(category, "company"), strings.Contains(category, "knowledge"):
		return domain.BackendKnowledge, true
	}
	return "", false
}

// buildPrompt constructs the constrained classification prompt.
func buildPrompt(query string, hasFile bool) string {
	return fmt.Sprintf(`You are an intent classifier for a corporate lending company's chatbot system.

The chatbot's PURPOSE is to:
- Answer questions about the company's lending policies, procedures, and services
- Help users understand uploaded loan documents
- Provide loan status and database information
- Create visualizations and charts from database data

Classify the user's query into EXACTLY ONE category:

1. **company knowledge**
   - Questions about company policies, lending procedures, loan products, fees, contact info
   - How-to questions about using the company's services
   Examples: "How do I apply for a loan?", "What are your interest rates?"

2. **document q&a**
   - Questions specifically about an uploaded document's content
   - ONLY choose this if a document IS uploaded
   Examples: "What is the interest rate in this document?", "Summarize this contract"

3. **database**
   - Simple queries about specific loan records, customer data, account balances
   - Questions requiring database lookup WITHOUT visualization
   Examples: "Show loan ID 12345", "How many active loans?"

4. **visualization**
   - Queries that request charts, graphs, or visual representations of data
   - Any question with keywords like: chart, graph, plot, visualize, show trend, compare, distribution
   Examples: "Show me a chart of loan amounts", "Plot monthly loan trends"

5. **out_of_scope**
   - General chitchat or greetings (e.g., "hello", "how are you")
   - Questions completely unrelated to lending/finance
   Examples: "What's the weather today?", "Tell me a joke"

Document uploaded: %t
User query: "%s"

IMPORTANT RULES:
- Keywords like "chart", "graph", "plot", "visualize", "trend", "compare" mean visualization
- Simple data queries without visualization keywords mean database
- Greetings and pleasantries mean out_of_scope
- If a document is uploaded AND the question is about it, choose document q&a
- Company/policy questions mean company knowledge

Respond with EXACTLY one of: company knowledge, document q&a, database, visualization, out_of_scope`, hasFile, query)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
