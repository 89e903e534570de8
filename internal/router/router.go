// Package router dispatches chat turns: classify, select a backend
// adapter, invoke it under the retry policy, normalize the payload, and
// record the exchange on the session.
package router

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lendfront/unirouter/internal/backend"
	"github.com/lendfront/unirouter/internal/config"
	"github.com/lendfront/unirouter/internal/domain"
	"github.com/lendfront/unirouter/internal/logging"
	"github.com/lendfront/unirouter/internal/pdf"
	"github.com/lendfront/unirouter/internal/session"
)

// degradedAnswer is returned when a provider stays down through the
// whole retry budget. The turn still succeeds from the caller's side.
const degradedAnswer = "I'm sorry, something went wrong and I didn't get a result. Please try again in a moment."

// Classifier decides the capability label for a query.
type Classifier interface {
	Classify(ctx context.Context, text string, hasFile bool) domain.ClassificationResult
}

// Router is the dispatcher behind POST /chat.
type Router struct {
	registry   *backend.Registry
	classifier Classifier
	sessions   session.Store
	policy     backend.Policy
	limits     config.LimitsConfig
	log        *logging.Logger

	now   func() time.Time
	newID func() string
}

// New creates a router over the adapter registry and session store.
func New(registry *backend.Registry, classifier Classifier, sessions session.Store,
	policy backend.Policy, limits config.LimitsConfig, log *logging.Logger) *Router {
	return &Router{
		registry:   registry,
		classifier: classifier,
		sessions:   sessions,
		policy:     policy,
		limits:     limits,
		log:        log.Sub("router"),
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
}

// Handle processes one chat turn end to end.
func (r *Router) Handle(ctx context.Context, req domain.ChatRequest) (*domain.UnifiedResponse, error) {
	sessionID, err := r.resolveSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if err := r.validate(req); err != nil {
		return nil, err
	}

	decision := r.classifier.Classify(ctx, req.Message, req.File != nil)
	label := decision.Backend

	// The model can pick the document label from wording alone; without
	// an actual file there is nothing to answer from.
	if label == domain.BackendDocument && req.File == nil {
		r.log.Debug().Msg("document label without a file, deflecting")
		label = domain.BackendScopeGuard
	}

	r.log.Info().
		Str("session_id", sessionID).
		Str("backend", label.String()).
		Str("source", string(decision.Source)).
		Msg("routing chat turn")

	return r.dispatch(ctx, label, sessionID, req)
}

// HandleDirect processes a chat turn against a fixed backend, bypassing
// classification. The per-capability sub-routes use this.
func (r *Router) HandleDirect(ctx context.Context, label domain.Backend, req domain.ChatRequest) (*domain.UnifiedResponse, error) {
	sessionID, err := r.resolveSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if err := r.validate(req); err != nil {
		return nil, err
	}
	if label == domain.BackendDocument && req.File == nil {
		return nil, domain.NewValidationError(domain.ErrInvalidFileType)
	}
	return r.dispatch(ctx, label, sessionID, req)
}

// dispatch invokes the adapter for label and records the exchange.
func (r *Router) dispatch(ctx context.Context, label domain.Backend, sessionID string, req domain.ChatRequest) (*domain.UnifiedResponse, error) {
	adapter, ok := r.registry.Get(label)
	if !ok {
		return nil, fmt.Errorf("no adapter registered for backend %q", label)
	}

	query := backend.Query{Message: req.Message, SessionID: sessionID, File: req.File}

	var raw *backend.RawResult
	err := r.policy.Do(ctx, func(ctx context.Context) error {
		result, err := adapter.Invoke(ctx, query)
		if err != nil {
			return err
		}
		raw = result
		return nil
	})
	if err != nil {
		// A cancelled caller gets nothing recorded; a dead provider
		// still yields a well-formed degraded response.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if domain.IsValidation(err) {
			return nil, err
		}
		r.log.Error().Err(err).Str("backend", label.String()).Msg("provider failed after retries")
		resp := &domain.UnifiedResponse{
			Backend:   label,
			Answer:    degradedAnswer,
			SessionID: sessionID,
			Error:     err.Error(),
		}
		r.record(ctx, sessionID, label, req.Message, resp.Answer)
		return resp, nil
	}

	resp := Normalize(label, raw, sessionID)
	r.record(ctx, sessionID, label, req.Message, resp.Answer)
	return resp, nil
}

// resolveSession returns the effective session ID, creating the session
// record. Unknown IDs are resumed tolerantly rather than rejected.
func (r *Router) resolveSession(ctx context.Context, id string) (string, error) {
	if id == "" {
		id = r.newID()
		r.log.Debug().Str("session_id", id).Msg("new session")
	}
	if _, err := r.sessions.GetOrCreate(ctx, id); err != nil {
		return "", fmt.Errorf("resolving session: %w", err)
	}
	return id, nil
}

// validate enforces the message and attachment limits before any
// provider call.
func (r *Router) validate(req domain.ChatRequest) error {
	if req.Message == "" {
		return domain.NewValidationError(domain.ErrMessageEmpty)
	}
	if utf8.RuneCountInString(req.Message) > r.limits.MaxMessageChars {
		return domain.NewValidationError(domain.ErrMessageTooLong)
	}

	if req.File == nil {
		return nil
	}
	if req.File.ContentType != "application/pdf" {
		return domain.NewValidationError(domain.ErrInvalidFileType)
	}
	if int64(len(req.File.Content)) > r.limits.MaxFileBytes {
		return domain.NewValidationError(domain.ErrFileTooLarge)
	}
	pages, err := pdf.PageCount(req.File.Content)
	if err != nil {
		if errors.Is(err, pdf.ErrNotPDF) {
			return domain.NewValidationError(domain.ErrInvalidFileType)
		}
		return domain.NewValidationError(domain.ErrFileUnreadable)
	}
	if pages > r.limits.MaxFilePages {
		return domain.NewValidationError(domain.ErrTooManyPages)
	}
	return nil
}

// record appends the user and assistant turns. Failures to persist are
// logged, not surfaced; the caller already has the answer.
func (r *Router) record(ctx context.Context, sessionID string, label domain.Backend, question, answer string) {
	now := r.now()
	err := r.sessions.AppendTurns(ctx, sessionID, label,
		domain.Turn{Role: domain.RoleUser, Content: question, Timestamp: now},
		domain.Turn{Role: domain.RoleAssistant, Content: answer, Timestamp: now},
	)
	if err != nil {
		r.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to record turns")
	}
}
