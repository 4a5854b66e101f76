// Package pool implements the server pool and scheduler: ref-counted
// language-server processes keyed by (language, project root),
// single-flight initialization, and grace-period shutdown, generalized
// from one server per process to many servers multiplexed by project.
package pool

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lsmcp-dev/lsmcp/internal/lsp"
	"github.com/lsmcp-dev/lsmcp/internal/rpc"
)

// State is a pool entry's position in its lifecycle state machine:
// Spawning -> Initializing -> Ready -> Draining -> Stopped, with a
// transition to Stopped from any state on fatal transport error.
type State int

const (
	StateSpawning State = iota
	StateInitializing
	StateReady
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateSpawning:
		return "spawning"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Entry is one pooled language-server connection, shared by every acquire
// for its (language, projectRoot) key.
type Entry struct {
	Key         string
	Language    string
	ProjectRoot string
	Profile     lsp.Profile

	Process     *rpc.Process
	Documents   *lsp.Session
	Diagnostics *lsp.Diagnostics

	mu       sync.Mutex
	state    State
	refCount int

	// drainTimer is armed by Pool.Release when refCount reaches zero and
	// shuts the entry down after drainGrace; stopped and reset across
	// Acquire/Release races under mu.
	drainTimer *time.Timer
	stopped    chan struct{}

	logger *zap.Logger
}

func newEntry(key, language, projectRoot string, profile lsp.Profile, logger *zap.Logger) *Entry {
	return &Entry{
		Key:         key,
		Language:    language,
		ProjectRoot: projectRoot,
		Profile:     profile,
		state:       StateSpawning,
		stopped:     make(chan struct{}),
		logger:      logger,
	}
}

// State returns the entry's current lifecycle state.
func (e *Entry) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Entry) setState(s State) {
	e.mu.Lock()
	prev := e.state
	e.state = s
	e.mu.Unlock()
	if prev != s {
		e.logger.Debug("entry state transition",
			zap.String("key", e.Key), zap.String("from", prev.String()), zap.String("to", s.String()))
	}
}

// retain increments the ref count and cancels any pending drain timer,
// called with the entry already installed in the pool's map.
func (e *Entry) retain() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refCount++
	if e.drainTimer != nil {
		e.drainTimer.Stop()
		e.drainTimer = nil
	}
}

// release decrements the ref count and reports whether it reached zero.
func (e *Entry) release() (zero bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.refCount > 0 {
		e.refCount--
	}
	return e.refCount == 0
}

// Stopped returns a channel closed once the entry's process has exited.
func (e *Entry) Stopped() <-chan struct{} { return e.stopped }
