package router

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendfront/unirouter/internal/backend"
	"github.com/lendfront/unirouter/internal/config"
	"github.com/lendfront/unirouter/internal/domain"
	"github.com/lendfront/unirouter/internal/logging"
	"github.com/lendfront/unirouter/internal/session"
)

// fixedClassifier returns a pinned label, honoring the file override.
type fixedClassifier struct {
	label domain.Backend
	calls int
}

func (c *fixedClassifier) Classify(_ context.Context, _ string, hasFile bool) domain.ClassificationResult {
	c.calls++
	if hasFile {
		return domain.ClassificationResult{Backend: domain.BackendDocument, Source: domain.SourceForcedByFile}
	}
	return domain.ClassificationResult{Backend: c.label, Source: domain.SourceModel}
}

// scriptedAdapter counts invocations and fails until failures runs out.
type scriptedAdapter struct {
	label    domain.Backend
	failures int
	err      error
	result   *backend.RawResult
	invokes  int
}

func (a *scriptedAdapter) Backend() domain.Backend { return a.label }

func (a *scriptedAdapter) Invoke(_ context.Context, q backend.Query) (*backend.RawResult, error) {
	a.invokes++
	if a.invokes <= a.failures {
		return nil, a.err
	}
	if a.result != nil {
		return a.result, nil
	}
	return &backend.RawResult{Answer: "answer for: " + q.Message}, nil
}

func (a *scriptedAdapter) Probe(context.Context) error { return nil }

func testLimits() config.LimitsConfig {
	return config.LimitsConfig{MaxMessageChars: 2000, MaxFileBytes: 5 << 20, MaxFilePages: 20}
}

func newTestRouter(t *testing.T, cls Classifier, adapters ...backend.Adapter) (*Router, session.Store) {
	t.Helper()
	log := logging.New(io.Discard, "silent")
	reg := backend.NewRegistry(log)
	for _, a := range adapters {
		reg.Register(a)
	}
	reg.Register(backend.NewScopeGuardAdapter())
	sessions := session.NewMemoryStore(time.Hour, log)
	policy := backend.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
	return New(reg, cls, sessions, policy, testLimits(), log), sessions
}

func validPDF(pages int) *domain.FileUpload {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n<< /Type /Pages >>\n")
	for i := 0; i < pages; i++ {
		fmt.Fprintf(&buf, "<< /Type /Page >>\n")
	}
	return &domain.FileUpload{Filename: "doc.pdf", ContentType: "application/pdf", Content: buf.Bytes()}
}

func TestHandleRoutesToClassifiedBackend(t *testing.T) {
	adapter := &scriptedAdapter{label: domain.BackendDatabase}
	r, sessions := newTestRouter(t, &fixedClassifier{label: domain.BackendDatabase}, adapter)

	resp, err := r.Handle(context.Background(), domain.ChatRequest{Message: "show loan 42"})
	require.NoError(t, err)
	assert.Equal(t, domain.BackendDatabase, resp.Backend)
	assert.Equal(t, "answer for: show loan 42", resp.Answer)
	assert.NotEmpty(t, resp.SessionID, "a session ID is assigned when omitted")
	assert.Equal(t, 1, adapter.invokes)

	sess, ok, err := sessions.Get(context.Background(), resp.SessionID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, sess.Turns, 2, "each chat adds the user and assistant turns")
	assert.Equal(t, domain.BackendDatabase, sess.LastBackend)
}

func TestHandleReusesProvidedSession(t *testing.T) {
	adapter := &scriptedAdapter{label: domain.BackendKnowledge}
	r, sessions := newTestRouter(t, &fixedClassifier{label: domain.BackendKnowledge}, adapter)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		resp, err := r.Handle(ctx, domain.ChatRequest{Message: "hello", SessionID: "my-session"})
		require.NoError(t, err)
		assert.Equal(t, "my-session", resp.SessionID)
	}

	sess, ok, err := sessions.Get(ctx, "my-session")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, sess.Turns, 6)
}

func TestHandleToleratesUnknownSessionID(t *testing.T) {
	adapter := &scriptedAdapter{label: domain.BackendKnowledge}
	r, _ := newTestRouter(t, &fixedClassifier{label: domain.BackendKnowledge}, adapter)

	resp, err := r.Handle(context.Background(), domain.ChatRequest{Message: "hi", SessionID: "never-seen-before"})
	require.NoError(t, err)
	assert.Equal(t, "never-seen-before", resp.SessionID, "unknown IDs are resumed, not rejected")
}

func TestHandleFileForcesDocumentBackend(t *testing.T) {
	docAdapter := &scriptedAdapter{label: domain.BackendDocument, result: &backend.RawResult{Answer: "from the document"}}
	cls := &fixedClassifier{label: domain.BackendDatabase}
	r, _ := newTestRouter(t, cls, docAdapter)

	resp, err := r.Handle(context.Background(), domain.ChatRequest{
		Message: "summarize this",
		File:    validPDF(3),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BackendDocument, resp.Backend)
	assert.Equal(t, 1, docAdapter.invokes)
}

func TestHandleDocumentLabelWithoutFileDeflects(t *testing.T) {
	docAdapter := &scriptedAdapter{label: domain.BackendDocument}
	r, _ := newTestRouter(t, &fixedClassifier{label: domain.BackendDocument}, docAdapter)

	resp, err := r.Handle(context.Background(), domain.ChatRequest{Message: "what does the document say?"})
	require.NoError(t, err)
	assert.Equal(t, domain.BackendScopeGuard, resp.Backend)
	assert.Zero(t, docAdapter.invokes, "the document provider must not be called without a file")
	assert.Contains(t, resp.Answer, "lending services")
}

func TestHandleRetriesTransientProviderFailure(t *testing.T) {
	adapter := &scriptedAdapter{
		label:    domain.BackendDatabase,
		failures: 2,
		err:      &backend.ProviderError{Backend: "db_assist", Code: 503, Message: "unavailable"},
	}
	r, _ := newTestRouter(t, &fixedClassifier{label: domain.BackendDatabase}, adapter)

	resp, err := r.Handle(context.Background(), domain.ChatRequest{Message: "show loan 42"})
	require.NoError(t, err)
	assert.Equal(t, 3, adapter.invokes, "two failures then success")
	assert.Empty(t, resp.Error)
}

func TestHandleExhaustedRetriesDegrades(t *testing.T) {
	adapter := &scriptedAdapter{
		label:    domain.BackendDatabase,
		failures: 99,
		err:      &backend.ProviderError{Backend: "db_assist", Code: 500, Message: "down"},
	}
	r, sessions := newTestRouter(t, &fixedClassifier{label: domain.BackendDatabase}, adapter)

	resp, err := r.Handle(context.Background(), domain.ChatRequest{Message: "show loan 42", SessionID: "s1"})
	require.NoError(t, err, "a dead provider is not an HTTP-level failure")
	assert.Equal(t, 3, adapter.invokes, "attempt budget is 3")
	assert.Equal(t, domain.BackendDatabase, resp.Backend)
	assert.Equal(t, degradedAnswer, resp.Answer)
	assert.Contains(t, resp.Error, "provider error (500)")

	sess, _, err := sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, sess.Turns, 2, "the degraded exchange is still recorded")
}

func TestHandleTerminalProviderErrorNotRetried(t *testing.T) {
	adapter := &scriptedAdapter{
		label:    domain.BackendKnowledge,
		failures: 99,
		err:      &backend.ProviderError{Backend: "lf_assist", Code: 400, Message: "bad request"},
	}
	r, _ := newTestRouter(t, &fixedClassifier{label: domain.BackendKnowledge}, adapter)

	_, err := r.Handle(context.Background(), domain.ChatRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, adapter.invokes)
}

func TestHandleCancellationRecordsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	adapter := &scriptedAdapter{
		label:    domain.BackendDatabase,
		failures: 99,
		err:      &backend.ProviderError{Backend: "db_assist", Code: 500, Message: "down"},
	}
	r, sessions := newTestRouter(t, &fixedClassifier{label: domain.BackendDatabase}, adapter)

	cancel()
	_, err := r.Handle(ctx, domain.ChatRequest{Message: "show loan 42", SessionID: "s1"})
	require.Error(t, err)

	sess, ok, getErr := sessions.Get(context.Background(), "s1")
	require.NoError(t, getErr)
	if ok {
		assert.Empty(t, sess.Turns, "no turn may be recorded for a cancelled request")
	}
}

func TestHandleValidatesMessageBounds(t *testing.T) {
	adapter := &scriptedAdapter{label: domain.BackendKnowledge}
	r, _ := newTestRouter(t, &fixedClassifier{label: domain.BackendKnowledge}, adapter)
	ctx := context.Background()

	_, err := r.Handle(ctx, domain.ChatRequest{Message: ""})
	require.ErrorIs(t, err, domain.ErrMessageEmpty)
	assert.True(t, domain.IsValidation(err))

	_, err = r.Handle(ctx, domain.ChatRequest{Message: strings.Repeat("a", 2001)})
	require.ErrorIs(t, err, domain.ErrMessageTooLong)

	// Exact boundary passes.
	_, err = r.Handle(ctx, domain.ChatRequest{Message: strings.Repeat("a", 2000)})
	require.NoError(t, err)

	// Multibyte runes count as characters, not bytes.
	_, err = r.Handle(ctx, domain.ChatRequest{Message: strings.Repeat("é", 2000)})
	require.NoError(t, err)
}

func TestHandleValidatesAttachment(t *testing.T) {
	docAdapter := &scriptedAdapter{label: domain.BackendDocument}
	r, _ := newTestRouter(t, &fixedClassifier{label: domain.BackendDocument}, docAdapter)
	ctx := context.Background()

	cases := []struct {
		name string
		file *domain.FileUpload
		want error
	}{
		{
			"wrong content type",
			&domain.FileUpload{Filename: "notes.txt", ContentType: "text/plain", Content: []byte("hi")},
			domain.ErrInvalidFileType,
		},
		{
			"pdf content type but not a pdf",
			&domain.FileUpload{Filename: "fake.pdf", ContentType: "application/pdf", Content: []byte("not a pdf")},
			domain.ErrInvalidFileType,
		},
		{
			"oversized",
			&domain.FileUpload{Filename: "big.pdf", ContentType: "application/pdf",
				Content: append([]byte("%PDF-1.4"), make([]byte, 5<<20)...)},
			domain.ErrFileTooLarge,
		},
		{
			"too many pages",
			validPDF(21),
			domain.ErrTooManyPages,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Handle(ctx, domain.ChatRequest{Message: "about this file", File: tc.file})
			require.ErrorIs(t, err, tc.want)
			assert.True(t, domain.IsValidation(err))
		})
	}
	assert.Zero(t, docAdapter.invokes, "validation failures never reach a provider")

	// Exact boundaries pass.
	docAdapter.result = &backend.RawResult{Answer: "ok"}
	_, err := r.Handle(ctx, domain.ChatRequest{Message: "about this file", File: validPDF(20)})
	require.NoError(t, err)
}

func TestHandleDirectBypassesClassification(t *testing.T) {
	adapter := &scriptedAdapter{label: domain.BackendDatabase}
	cls := &fixedClassifier{label: domain.BackendKnowledge}
	r, _ := newTestRouter(t, cls, adapter)

	resp, err := r.HandleDirect(context.Background(), domain.BackendDatabase,
		domain.ChatRequest{Message: "show loan 42"})
	require.NoError(t, err)
	assert.Equal(t, domain.BackendDatabase, resp.Backend)
	assert.Zero(t, cls.calls, "direct routes never classify")
	assert.Equal(t, 1, adapter.invokes)
}

func TestHandleDirectDocumentRequiresFile(t *testing.T) {
	docAdapter := &scriptedAdapter{label: domain.BackendDocument}
	r, _ := newTestRouter(t, &fixedClassifier{label: domain.BackendKnowledge}, docAdapter)

	_, err := r.HandleDirect(context.Background(), domain.BackendDocument,
		domain.ChatRequest{Message: "summarize"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Zero(t, docAdapter.invokes)
}
