package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/lsmcp-dev/lsmcp/internal/brokererr"
	"github.com/lsmcp-dev/lsmcp/internal/lsp"
	"github.com/lsmcp-dev/lsmcp/internal/rpc"
)

// CommandResolver maps a language id to the executable and arguments used
// to spawn its language server.
type CommandResolver func(language string) (command string, args []string, ok bool)

// Pool owns the set of live language-server connections, ref-counted by
// (language, projectRoot).
type Pool struct {
	logger     *zap.Logger
	resolve    CommandResolver
	drainGrace time.Duration
	killGrace  time.Duration

	mu      sync.Mutex
	entries map[string]*Entry

	sf singleflight.Group
}

// New constructs a Pool. drainGrace is how long an entry with zero
// referents stays warm before shutdown begins; killGrace is how long a
// graceful shutdown/exit sequence is given before the process is killed.
func New(resolve CommandResolver, drainGrace, killGrace time.Duration, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		logger:     logger,
		resolve:    resolve,
		drainGrace: drainGrace,
		killGrace:  killGrace,
		entries:    make(map[string]*Entry),
	}
}

func key(language, projectRoot string) string { return language + "::" + projectRoot }

// Acquire returns the pooled entry for (language, projectRoot), spawning and
// initializing a language server on first use. Concurrent acquires for the
// same key are deduplicated via single-flight so exactly one server
// initializes.
func (p *Pool) Acquire(ctx context.Context, language, projectRoot string) (*Entry, error) {
	k := key(language, projectRoot)

	p.mu.Lock()
	if e, ok := p.entries[k]; ok && e.State() != StateStopped {
		p.mu.Unlock()
		e.retain()
		return e, nil
	}
	p.mu.Unlock()

	v, err, _ := p.sf.Do(k, func() (interface{}, error) {
		p.mu.Lock()
		if e, ok := p.entries[k]; ok && e.State() != StateStopped {
			p.mu.Unlock()
			return e, nil
		}
		p.mu.Unlock()

		e, err := p.spawn(ctx, k, language, projectRoot)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		p.entries[k] = e
		p.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}

	e := v.(*Entry)
	e.retain()
	return e, nil
}

func (p *Pool) spawn(ctx context.Context, k, language, projectRoot string) (*Entry, error) {
	command, args, ok := p.resolve(language)
	if !ok {
		return nil, &brokererr.Error{Kind: brokererr.KindInvalidArgument, Op: "pool.Acquire", Language: language, Message: "no server command configured for language"}
	}

	profile := lsp.ProfileFor(language)
	entry := newEntry(k, language, projectRoot, profile, p.logger.Named(language))

	proc, err := rpc.Spawn(context.Background(), command, args, projectRoot, p.logger)
	if err != nil {
		entry.setState(StateStopped)
		return nil, brokererr.Wrap(brokererr.KindTransport, "pool.Acquire", fmt.Errorf("spawn %s: %w", command, err))
	}
	entry.Process = proc
	entry.Documents = lsp.NewSession(proc.Client)

	entry.setState(StateInitializing)

	supportsPull := false
	entry.Diagnostics = lsp.NewDiagnostics(proc.Client, supportsPull)
	proc.Client.OnNotification(func(method string, raw json.RawMessage) {
		if method != protocol.MethodTextDocumentPublishDiagnostics {
			return
		}
		var params protocol.PublishDiagnosticsParams
		if jsonErr := json.Unmarshal(raw, &params); jsonErr == nil {
			entry.Diagnostics.OnPublish(params)
		}
	})

	go func() {
		_ = proc.Wait()
		entry.setState(StateStopped)
		close(entry.stopped)
	}()

	if err := initialize(ctx, proc.Client, projectRoot, entry.Profile.OperationTimeout); err != nil {
		_ = proc.Kill()
		entry.setState(StateStopped)
		return nil, err
	}

	entry.setState(StateReady)
	return entry, nil
}

func initialize(ctx context.Context, client *rpc.Client, projectRoot string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = rpc.DefaultTimeout
	}
	pid := os.Getpid()
	rootURI := uri.File(projectRoot)

	params := protocol.InitializeParams{
		ProcessID:    float64(pid),
		RootURI:      rootURI,
		RootPath:     projectRoot,
		Capabilities: lsp.ClientCapabilities(),
		WorkspaceFolders: []protocol.WorkspaceFolder{
			{URI: string(rootURI), Name: projectRoot},
		},
	}

	var result protocol.InitializeResult
	if err := client.Call(ctx, protocol.MethodInitialize, params, &result, timeout); err != nil {
		return brokererr.Wrap(brokererr.KindTransport, "pool.initialize", fmt.Errorf("initialize handshake: %w", err))
	}
	if err := client.Notify(protocol.MethodInitialized, protocol.InitializedParams{}); err != nil {
		return brokererr.Wrap(brokererr.KindTransport, "pool.initialize", fmt.Errorf("initialized notification: %w", err))
	}
	return nil
}

// Release returns one reference to k's entry. When the last reference is
// released, a drain timer starts; if no Acquire reclaims the entry before
// drainGrace elapses, shutdown begins.
func (p *Pool) Release(e *Entry) {
	if !e.release() {
		return
	}

	e.mu.Lock()
	e.state = StateDraining
	e.drainTimer = time.AfterFunc(p.drainGrace, func() {
		e.mu.Lock()
		stillIdle := e.refCount == 0 && e.state == StateDraining
		e.mu.Unlock()
		if stillIdle {
			p.shutdown(e)
		}
	})
	e.mu.Unlock()
}

func (p *Pool) shutdown(e *Entry) {
	p.mu.Lock()
	if p.entries[e.Key] == e {
		delete(p.entries, e.Key)
	}
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.killGrace)
	defer cancel()

	if err := e.Process.Client.Call(ctx, protocol.MethodShutdown, nil, nil, p.killGrace); err != nil {
		p.logger.Debug("shutdown request failed, killing", zap.String("key", e.Key), zap.Error(err))
	} else {
		_ = e.Process.Client.Notify(protocol.MethodExit, nil)
	}

	select {
	case <-e.Stopped():
	case <-time.After(p.killGrace):
		_ = e.Process.Kill()
	}
	e.setState(StateStopped)
}

// ShutdownAll requests exit for every pooled entry and waits up to
// killGrace for each to stop before killing it.
// Used on broker process shutdown.
func (p *Pool) ShutdownAll() {
	p.mu.Lock()
	entries := make([]*Entry, 0, len(p.entries))
	for _, e := range p.entries {
		entries = append(entries, e)
	}
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		go func(e *Entry) {
			defer wg.Done()
			p.shutdown(e)
		}(e)
	}
	wg.Wait()
}

// Stats reports the number of currently pooled entries, for diagnosability.
func (p *Pool) Stats() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
