package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lsmcp-dev/lsmcp/internal/brokererr"
)

func TestNewPoolStartsEmpty(t *testing.T) {
	p := New(func(string) (string, []string, bool) { return "", nil, false }, time.Second, time.Second, nil)
	if got := p.Stats(); got != 0 {
		t.Errorf("Stats() = %d, want 0", got)
	}
}

func TestAcquireFailsWhenLanguageUnresolved(t *testing.T) {
	p := New(func(string) (string, []string, bool) { return "", nil, false }, time.Second, time.Second, nil)

	_, err := p.Acquire(context.Background(), "cobol", "/app")
	if err == nil {
		t.Fatal("expected an error when the resolver does not recognize the language")
	}
	var brokerErr *brokererr.Error
	if !errors.As(err, &brokerErr) {
		t.Fatalf("expected a *brokererr.Error, got %T: %v", err, err)
	}
	if brokerErr.Kind != brokererr.KindInvalidArgument {
		t.Errorf("Kind = %v, want %v", brokerErr.Kind, brokererr.KindInvalidArgument)
	}
	if got := p.Stats(); got != 0 {
		t.Errorf("Stats() after a failed acquire = %d, want 0", got)
	}
}

func TestKeyCombinesLanguageAndRoot(t *testing.T) {
	if got, want := key("go", "/app"), "go::/app"; got != want {
		t.Errorf("key() = %q, want %q", got, want)
	}
	if key("go", "/app") == key("rust", "/app") {
		t.Error("key() collided across different languages")
	}
}
