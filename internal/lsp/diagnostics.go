package lsp

import (
	"context"
	"sync"
	"time"

	"go.lsp.dev/protocol"

	"github.com/lsmcp-dev/lsmcp/internal/brokererr"
)

// caller is the minimal surface Diagnostics needs to issue a pull request.
type caller interface {
	Call(ctx context.Context, method string, params, result any, timeout time.Duration) error
}

// Diagnostics aggregates push diagnostics from textDocument/publishDiagnostics
// notifications and exposes get/pull/wait-for access over them.
type Diagnostics struct {
	caller           caller
	supportsPull     bool
	supportsWaitable bool

	mu       sync.RWMutex
	byURI    map[protocol.DocumentURI][]protocol.Diagnostic
	waiters  map[protocol.DocumentURI][]chan struct{}
}

// NewDiagnostics constructs an aggregator. supportsPull should reflect
// whether the negotiated server capabilities advertise
// textDocument/diagnostic (pull diagnostics); when false, Pull always
// falls back to the push snapshot.
func NewDiagnostics(c caller, supportsPull bool) *Diagnostics {
	return &Diagnostics{
		caller:       c,
		supportsPull: supportsPull,
		byURI:        make(map[protocol.DocumentURI][]protocol.Diagnostic),
		waiters:      make(map[protocol.DocumentURI][]chan struct{}),
	}
}

// OnPublish is registered as the publishDiagnostics notification handler.
// It drops diagnostics with an empty range and wakes any WaitFor callers
// for this URI.
func (d *Diagnostics) OnPublish(params protocol.PublishDiagnosticsParams) {
	filtered := make([]protocol.Diagnostic, 0, len(params.Diagnostics))
	for _, diag := range params.Diagnostics {
		if diag.Range.Start == diag.Range.End {
			continue
		}
		filtered = append(filtered, diag)
	}

	d.mu.Lock()
	d.byURI[params.URI] = filtered
	waiters := d.waiters[params.URI]
	delete(d.waiters, params.URI)
	d.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}
}

// Get returns the current snapshot for uri.
func (d *Diagnostics) Get(uri protocol.DocumentURI) []protocol.Diagnostic {
	d.mu.RLock()
	defer d.mu.RUnlock()
	existing := d.byURI[uri]
	out := make([]protocol.Diagnostic, len(existing))
	copy(out, existing)
	return out
}

// Clear drops the stored diagnostics for uri, called on document close.
func (d *Diagnostics) Clear(uri protocol.DocumentURI) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.byURI, uri)
}

// Pull tries textDocument/diagnostic when the server advertises pull
// diagnostics, falling back to the push snapshot otherwise or on error.
func (d *Diagnostics) Pull(ctx context.Context, uri protocol.DocumentURI, timeout time.Duration) []protocol.Diagnostic {
	if !d.supportsPull {
		return d.Get(uri)
	}

	var result struct {
		Items []protocol.Diagnostic `json:"items"`
	}
	params := struct {
		TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	}{TextDocument: protocol.TextDocumentIdentifier{URI: uri}}

	if err := d.caller.Call(ctx, "textDocument/diagnostic", params, &result, timeout); err != nil {
		return d.Get(uri)
	}
	return result.Items
}

// WaitFor blocks until the next publishDiagnostics for uri arrives or
// timeout elapses, returning KindTimeout in the latter case.
func (d *Diagnostics) WaitFor(ctx context.Context, uri protocol.DocumentURI, timeout time.Duration) ([]protocol.Diagnostic, error) {
	ch := make(chan struct{})
	d.mu.Lock()
	d.waiters[uri] = append(d.waiters[uri], ch)
	d.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return d.Get(uri), nil
	case <-timer.C:
		return nil, &brokererr.Error{Kind: brokererr.KindTimeout, Op: "diagnostics.WaitFor", FilePath: string(uri), Message: "timed out waiting for publishDiagnostics"}
	case <-ctx.Done():
		return nil, brokererr.Wrap(brokererr.KindTimeout, "diagnostics.WaitFor", ctx.Err())
	}
}
