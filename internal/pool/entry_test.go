package pool

import (
	"testing"

	"go.uber.org/zap"

	"github.com/lsmcp-dev/lsmcp/internal/lsp"
)

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateSpawning:      "spawning",
		StateInitializing:  "initializing",
		StateReady:         "ready",
		StateDraining:      "draining",
		StateStopped:       "stopped",
		State(99):          "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestNewEntryStartsSpawning(t *testing.T) {
	e := newEntry("go::/app", "go", "/app", lsp.ProfileFor("go"), zap.NewNop())
	if got := e.State(); got != StateSpawning {
		t.Errorf("newEntry() state = %v, want %v", got, StateSpawning)
	}
}

func TestRetainAndReleaseTrackRefCount(t *testing.T) {
	e := newEntry("go::/app", "go", "/app", lsp.ProfileFor("go"), zap.NewNop())

	e.retain()
	e.retain()
	if zero := e.release(); zero {
		t.Error("release() after two retains reported zero too early")
	}
	if zero := e.release(); !zero {
		t.Error("release() after matching retains should report zero")
	}
}

func TestReleaseWithoutRetainDoesNotUnderflow(t *testing.T) {
	e := newEntry("go::/app", "go", "/app", lsp.ProfileFor("go"), zap.NewNop())
	if zero := e.release(); !zero {
		t.Error("release() with no outstanding retains should report zero")
	}
	if e.refCount != 0 {
		t.Errorf("refCount = %d, want 0 (should not go negative)", e.refCount)
	}
}

func TestSetStateTransitions(t *testing.T) {
	e := newEntry("go::/app", "go", "/app", lsp.ProfileFor("go"), zap.NewNop())
	e.setState(StateReady)
	if got := e.State(); got != StateReady {
		t.Errorf("State() = %v, want %v", got, StateReady)
	}
}

func TestStoppedChannelClosesOnce(t *testing.T) {
	e := newEntry("go::/app", "go", "/app", lsp.ProfileFor("go"), zap.NewNop())
	select {
	case <-e.Stopped():
		t.Fatal("Stopped() channel closed before the process exited")
	default:
	}
	close(e.stopped)
	select {
	case <-e.Stopped():
	default:
		t.Fatal("Stopped() channel should be closed")
	}
}
