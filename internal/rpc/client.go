package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lsmcp-dev/lsmcp/internal/brokererr"
)

// NotificationHandler is invoked for every server-to-client notification.
// method is the LSP method name (e.g. "textDocument/publishDiagnostics");
// params is the raw, not-yet-decoded parameter payload.
type NotificationHandler func(method string, params json.RawMessage)

// ServerRequestHandler is invoked for server-to-client requests the client
// advertises support for . It returns the result to
// reply with, or an error which is translated into a JSON-RPC error
// response.
type ServerRequestHandler func(ctx context.Context, params json.RawMessage) (any, error)

// DefaultTimeout is used when no per-language override applies.
const DefaultTimeout = 30 * time.Second

type pendingCall struct {
	result chan rawMessage
	timer  *time.Timer
}

// Client is a single-writer JSON-RPC client multiplexed over request ids. It
// owns one writer goroutine-safe encoder and one background reader; callers
// may issue concurrent Call/Notify from any number of goroutines, since any
// number of tool requests may execute concurrently.
type Client struct {
	logger *zap.Logger

	encMu sync.Mutex // serializes writes
	enc   *Encoder
	dec   *Decoder
	closer io.Closer

	nextID int64

	pendingMu sync.Mutex
	pending   map[int64]*pendingCall

	notifyHandler NotificationHandler

	serverReqMu sync.RWMutex
	serverReqs  map[string]ServerRequestHandler

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

// NewClient constructs a Client reading from r and writing to w; closer is
// invoked once when the client is closed (typically the child process's
// combined stdio pipe or process handle).
func NewClient(r io.Reader, w io.Writer, closer io.Closer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		logger:     logger,
		enc:        NewEncoder(w),
		dec:        NewDecoder(r),
		closer:     closer,
		pending:    make(map[int64]*pendingCall),
		serverReqs: make(map[string]ServerRequestHandler),
		closed:     make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// OnNotification registers the single handler invoked for every
// notification the server sends.
func (c *Client) OnNotification(h NotificationHandler) { c.notifyHandler = h }

// HandleServerRequest registers a handler for a server-to-client request
// method. Methods without a registered handler are answered with
// method-not-found
func (c *Client) HandleServerRequest(method string, h ServerRequestHandler) {
	c.serverReqMu.Lock()
	defer c.serverReqMu.Unlock()
	c.serverReqs[method] = h
}

// Done returns a channel closed when the client's connection has terminated.
func (c *Client) Done() <-chan struct{} { return c.closed }

// Err returns the reason the client terminated, if any.
func (c *Client) Err() error { return c.closeErr }

// Call issues a request and blocks until a response, ctx cancellation, or
// timeout, whichever comes first. result, if non-nil, is populated by
// unmarshaling the response's result field.
func (c *Client) Call(ctx context.Context, method string, params, result any, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	select {
	case <-c.closed:
		return brokererr.Wrap(brokererr.KindTransport, "rpc.Call", fmt.Errorf("connection closed: %w", c.closeErr))
	default:
	}

	id := atomic.AddInt64(&c.nextID, 1)
	rawParams, err := marshalParams(params)
	if err != nil {
		return brokererr.Wrap(brokererr.KindInvalidArgument, "rpc.Call", err)
	}

	pc := &pendingCall{result: make(chan rawMessage, 1)}
	c.pendingMu.Lock()
	c.pending[id] = pc
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	idBytes, _ := json.Marshal(id)
	rawID := json.RawMessage(idBytes)
	msg := rawMessage{JSONRPC: "2.0", ID: &rawID, Method: method, Params: rawParams}

	c.encMu.Lock()
	writeErr := c.enc.writeRaw(msg)
	c.encMu.Unlock()
	if writeErr != nil {
		return brokererr.Wrap(brokererr.KindTransport, "rpc.Call", writeErr)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-pc.result:
		if resp.Error != nil {
			return serverError(method, resp.Error)
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return brokererr.Wrap(brokererr.KindTransport, "rpc.Call", fmt.Errorf("decode result: %w", err))
			}
		}
		return nil
	case <-timer.C:
		return &brokererr.Error{Kind: brokererr.KindTimeout, Op: "rpc.Call", Message: fmt.Sprintf("%s timed out after %s", method, timeout)}
	case <-ctx.Done():
		c.cancelRequest(id)
		return brokererr.Wrap(brokererr.KindTimeout, "rpc.Call", ctx.Err())
	case <-c.closed:
		return brokererr.Wrap(brokererr.KindTransport, "rpc.Call", fmt.Errorf("connection closed while awaiting %s: %w", method, c.closeErr))
	}
}

// Notify sends a notification (no response expected).
func (c *Client) Notify(method string, params any) error {
	rawParams, err := marshalParams(params)
	if err != nil {
		return brokererr.Wrap(brokererr.KindInvalidArgument, "rpc.Notify", err)
	}
	msg := rawMessage{JSONRPC: "2.0", Method: method, Params: rawParams}

	c.encMu.Lock()
	defer c.encMu.Unlock()
	if err := c.enc.writeRaw(msg); err != nil {
		return brokererr.Wrap(brokererr.KindTransport, "rpc.Notify", err)
	}
	return nil
}

// cancelRequest sends a best-effort $/cancelRequest notification for a
// pending call; the server is not required to honor it.
func (c *Client) cancelRequest(id int64) {
	_ = c.Notify("$/cancelRequest", struct {
		ID int64 `json:"id"`
	}{ID: id})
}

// Close shuts down the client, failing every pending call with a
// Transport-kind error wrapping cause.
func (c *Client) Close(cause error) error {
	c.closeOnce.Do(func() {
		c.closeErr = cause
		close(c.closed)
		if c.closer != nil {
			_ = c.closer.Close()
		}
		c.pendingMu.Lock()
		for id := range c.pending {
			delete(c.pending, id)
		}
		c.pendingMu.Unlock()
	})
	return nil
}

func (c *Client) readLoop() {
	for {
		msg, err := c.dec.readMessage()
		if err != nil {
			if IsFramingError(err) {
				c.logger.Warn("discarding malformed message", zap.Error(err))
				continue
			}
			c.logger.Info("transport closed", zap.Error(err))
			_ = c.Close(err)
			return
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg rawMessage) {
	switch {
	case msg.ID != nil && msg.Method == "" && (msg.Result != nil || msg.Error != nil):
		c.handleResponse(msg)
	case msg.ID != nil && msg.Method != "":
		c.handleServerRequest(msg)
	case msg.ID == nil && msg.Method != "":
		c.handleNotification(msg)
	default:
		c.logger.Warn("unrecognized message shape, dropping")
	}
}

func (c *Client) handleResponse(msg rawMessage) {
	var id int64
	if err := json.Unmarshal(*msg.ID, &id); err != nil {
		c.logger.Warn("response id not an integer, dropping", zap.Error(err))
		return
	}
	c.pendingMu.Lock()
	pc, ok := c.pending[id]
	c.pendingMu.Unlock()
	if !ok {
		return // late response for a call we already timed out or cancelled
	}
	select {
	case pc.result <- msg:
	default:
	}
}

func (c *Client) handleNotification(msg rawMessage) {
	if c.notifyHandler != nil {
		c.notifyHandler(msg.Method, msg.Params)
	}
}

func (c *Client) handleServerRequest(msg rawMessage) {
	c.serverReqMu.RLock()
	handler, ok := c.serverReqs[msg.Method]
	c.serverReqMu.RUnlock()

	reply := func(result any, rpcErr *wireError) {
		resp := rawMessage{JSONRPC: "2.0", ID: msg.ID}
		if rpcErr != nil {
			resp.Error = rpcErr
		} else if raw, err := json.Marshal(result); err == nil {
			resp.Result = raw
		}
		c.encMu.Lock()
		defer c.encMu.Unlock()
		if err := c.enc.writeRaw(resp); err != nil {
			c.logger.Warn("failed to reply to server request", zap.String("method", msg.Method), zap.Error(err))
		}
	}

	if !ok {
		reply(nil, &wireError{Code: -32601, Message: "method not found: " + msg.Method})
		return
	}
	result, err := handler(context.Background(), msg.Params)
	if err != nil {
		reply(nil, &wireError{Code: -32603, Message: err.Error()})
		return
	}
	reply(result, nil)
}

func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	return data, nil
}

func serverError(method string, e *wireError) error {
	if e.Code == -32601 {
		return &brokererr.Error{Kind: brokererr.KindUnsupported, Op: method, Message: fmt.Sprintf("language server doesn't support %s", methodLabel(method))}
	}
	return &brokererr.Error{Kind: brokererr.KindServerError, Op: method, ServerCode: e.Code, Message: e.Message}
}

// methodLabel reduces an LSP method name to its trailing segment, e.g.
// "textDocument/rename" -> "rename", for deterministic error messages that
// don't depend on the server's own error text.
func methodLabel(method string) string {
	if idx := strings.LastIndex(method, "/"); idx != -1 {
		return method[idx+1:]
	}
	return method
}
