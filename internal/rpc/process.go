package rpc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"

	"go.uber.org/zap"
)

// Process wraps a spawned LSP server subprocess and its JSON-RPC Client.
type Process struct {
	cmd    *exec.Cmd
	Client *Client
}

// stdioCloser closes stdin; the reader side is closed implicitly when the
// process exits.
type stdioCloser struct {
	stdin io.WriteCloser
}

func (s stdioCloser) Close() error { return s.stdin.Close() }

// Spawn starts command with args in dir and wires a Client to its stdio.
// The server's stderr is forwarded line-by-line to logger at Debug level
// for diagnosability without polluting the JSON-RPC stream.
func Spawn(ctx context.Context, command string, args []string, dir string, logger *zap.Logger) (*Process, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("rpc.Spawn: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("rpc.Spawn: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("rpc.Spawn: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("rpc.Spawn: start %s: %w", command, err)
	}

	go forwardStderr(stderr, logger.Named(command))

	client := NewClient(stdout, stdin, stdioCloser{stdin}, logger.Named(command))
	return &Process{cmd: cmd, Client: client}, nil
}

func forwardStderr(r io.Reader, logger *zap.Logger) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		logger.Debug("stderr", zap.String("line", scanner.Text()))
	}
}

// Wait blocks until the child process exits and returns its exit error, if
// any. It is safe to call concurrently with Kill.
func (p *Process) Wait() error { return p.cmd.Wait() }

// RequestExit closes the client connection, signaling the transport to tear
// down; callers that need the LSP shutdown/exit handshake issue those calls
// separately before this.
func (p *Process) RequestExit() {
	_ = p.Client.Close(fmt.Errorf("exit requested"))
}

// Kill forcibly terminates the process; used after the shutdown grace
// period expires without a clean exit.
func (p *Process) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// PID returns the child process id, or 0 if not started.
func (p *Process) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}
