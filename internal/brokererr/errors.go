// Package brokererr defines the structured error taxonomy surfaced to the
// tool-dispatch layer.
package brokererr

import (
	"errors"
	"fmt"
)

// Kind categorizes a broker error for programmatic handling at the tool
// boundary. Callers should use errors.As to recover a *Error and switch on
// Kind rather than comparing error strings.
type Kind int

const (
	// KindInvalidArgument means the tool call's arguments failed schema or
	// semantic validation before anything touched the pool.
	KindInvalidArgument Kind = iota
	// KindFileNotFound means the referenced file does not exist under root.
	KindFileNotFound
	// KindLineNotFound means a substring `line` argument matched no line.
	KindLineNotFound
	// KindSymbolNotFoundOnLine means no token on the resolved line matched
	// the requested symbol name.
	KindSymbolNotFoundOnLine
	// KindNotInitialized means an operation was attempted against a server
	// entry that has not completed its handshake.
	KindNotInitialized
	// KindTransport means the underlying JSON-RPC transport failed (process
	// exit, broken pipe, malformed frame after retries).
	KindTransport
	// KindTimeout means a per-request timeout elapsed before a response.
	KindTimeout
	// KindServerError wraps a JSON-RPC error response from the language
	// server verbatim (see ServerCode/Message).
	KindServerError
	// KindUnsupported means the server does not advertise the capability
	// the operation needed (LSP method-not-found, or no matching server
	// capability in InitializeResult).
	KindUnsupported
	// KindEditConflict means a workspace edit could not be applied cleanly
	// (e.g. stale ranges against the current file content).
	KindEditConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindFileNotFound:
		return "FileNotFound"
	case KindLineNotFound:
		return "LineNotFound"
	case KindSymbolNotFoundOnLine:
		return "SymbolNotFoundOnLine"
	case KindNotInitialized:
		return "NotInitialized"
	case KindTransport:
		return "Transport"
	case KindTimeout:
		return "Timeout"
	case KindServerError:
		return "ServerError"
	case KindUnsupported:
		return "Unsupported"
	case KindEditConflict:
		return "EditConflict"
	default:
		return "Unknown"
	}
}

// Error is the structured error type every core component returns. The tool
// layer wraps every error with context before formatting it for the
// assistant policy.
type Error struct {
	Kind Kind

	// Op names the operation that failed (e.g. "find_references",
	// "pool.acquire").
	Op string
	// FilePath is the file the operation targeted, if any.
	FilePath string
	// Symbol is the symbol name involved, if any.
	Symbol string
	// Language is the language identifier of the server involved, if any.
	Language string

	// ServerCode carries the raw JSON-RPC error code for KindServerError.
	ServerCode int
	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.FilePath != "" && e.Symbol != "":
		return fmt.Sprintf("%s: %s (%s, symbol %q): %s", e.Op, e.Kind, e.FilePath, e.Symbol, msg)
	case e.FilePath != "":
		return fmt.Sprintf("%s: %s (%s): %s", e.Op, e.Kind, e.FilePath, msg)
	default:
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error of the given kind with a message.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap constructs an *Error of the given kind wrapping an underlying cause.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithFile returns a copy of e annotated with a file path.
func (e *Error) WithFile(path string) *Error {
	c := *e
	c.FilePath = path
	return &c
}

// WithSymbol returns a copy of e annotated with a symbol name.
func (e *Error) WithSymbol(symbol string) *Error {
	c := *e
	c.Symbol = symbol
	return &c
}

// WithLanguage returns a copy of e annotated with a language identifier.
func (e *Error) WithLanguage(lang string) *Error {
	c := *e
	c.Language = lang
	return &c
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}
