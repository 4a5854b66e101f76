// Package orchestrator implements the scoped acquire -> ensure-open -> wait
// -> operate -> release helper, the single place every tool handler in
// internal/tools routes through so server acquisition, document lifecycle,
// and error mapping stay uniform.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/lsmcp-dev/lsmcp/internal/brokererr"
	"github.com/lsmcp-dev/lsmcp/internal/pool"
)

// Operation is a unit of work against a ready, document-open server entry.
// It receives the entry's JSON-RPC client and the URI of the file the
// caller asked about, already open in the entry's document session.
type Operation func(ctx context.Context, entry *pool.Entry, docURI protocol.DocumentURI) (any, error)

// Orchestrator binds a Pool to the per-call lifecycle: resolve language and
// project root, acquire a pooled entry, open the target file transiently if
// it is not already open, run the caller's operation, then release.
type Orchestrator struct {
	pool   *pool.Pool
	logger *zap.Logger
}

// New constructs an Orchestrator over p.
func New(p *pool.Pool, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{pool: p, logger: logger}
}

// Run acquires the pooled entry for (language, projectRoot), opens filePath
// as a transient document if not already open, executes op, and releases
// the entry afterward regardless of op's outcome. This is the single choke
// point every tool handler funnels through.
func (o *Orchestrator) Run(ctx context.Context, language, projectRoot, filePath string, op Operation) (any, error) {
	entry, err := o.pool.Acquire(ctx, language, projectRoot)
	if err != nil {
		return nil, err
	}
	defer o.pool.Release(entry)

	docURI := protocol.DocumentURI(uri.File(filePath))

	openedHere := !entry.Documents.IsOpen(docURI)
	if openedHere {
		content, readErr := os.ReadFile(filePath)
		if readErr != nil {
			return nil, &brokererr.Error{Kind: brokererr.KindFileNotFound, Op: "orchestrator.Run", FilePath: filePath, Err: readErr}
		}
		if err := entry.Documents.Open(docURI, string(content), entry.Language); err != nil {
			return nil, err
		}
		if entry.Profile.OpenDelay > 0 {
			o.waitForReady(ctx, entry, docURI)
		}
	}

	result, opErr := op(ctx, entry, docURI)

	if openedHere {
		if closeErr := entry.Documents.Close(docURI); closeErr != nil {
			o.logger.Warn("failed to close transient document",
				zap.String("file", filePath), zap.Error(closeErr))
		}
		entry.Diagnostics.Clear(docURI)
	}

	if opErr != nil {
		return nil, fmt.Errorf("orchestrator.Run %s: %w", filePath, opErr)
	}
	return result, nil
}

// RunWithoutDocument acquires the pooled entry for (language, projectRoot)
// and executes op without opening any document first, for operations like
// workspace/symbol that aren't scoped to one file.
func (o *Orchestrator) RunWithoutDocument(ctx context.Context, language, projectRoot string, op func(ctx context.Context, entry *pool.Entry) (any, error)) (any, error) {
	entry, err := o.pool.Acquire(ctx, language, projectRoot)
	if err != nil {
		return nil, err
	}
	defer o.pool.Release(entry)

	result, err := op(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("orchestrator.RunWithoutDocument: %w", err)
	}
	return result, nil
}

// waitForReady implements the per-language warm-up policy: most languages
// get a fixed settle delay after open; a
// language whose profile sets ReadyOnFirstDiagnostic instead waits for the
// server's first publishDiagnostics for the document, waiting at most the
// same delay.
func (o *Orchestrator) waitForReady(ctx context.Context, entry *pool.Entry, docURI protocol.DocumentURI) {
	if entry.Profile.ReadyOnFirstDiagnostic {
		waitCtx, cancel := context.WithTimeout(ctx, entry.Profile.OpenDelay)
		defer cancel()
		_, _ = entry.Diagnostics.WaitFor(waitCtx, docURI, entry.Profile.OpenDelay)
		return
	}

	timer := time.NewTimer(entry.Profile.OpenDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
