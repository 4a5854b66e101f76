package rpc

import (
	"context"
	"testing"
	"time"
)

func TestSpawnAssignsPID(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	proc, err := Spawn(ctx, "cat", nil, "", nil)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	t.Cleanup(func() { _ = proc.Kill() })

	if proc.PID() == 0 {
		t.Error("PID() = 0, want a non-zero child process id")
	}
}

func TestKillStopsTheProcess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	proc, err := Spawn(ctx, "cat", nil, "", nil)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	if err := proc.Kill(); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait() did not return after Kill()")
	}
}

func TestRequestExitClosesTheClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	proc, err := Spawn(ctx, "cat", nil, "", nil)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	t.Cleanup(func() { _ = proc.Kill() })

	proc.RequestExit()

	select {
	case <-proc.Client.Done():
	case <-time.After(time.Second):
		t.Fatal("client did not close after RequestExit()")
	}
}
