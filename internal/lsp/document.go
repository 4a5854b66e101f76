// Package lsp implements the per-document session, diagnostics
// aggregation, and capability/initialization profile subsystems used to
// drive a language server from the client role.
package lsp

import (
	"fmt"
	"sync"

	"go.lsp.dev/protocol"

	"github.com/lsmcp-dev/lsmcp/internal/brokererr"
)

// notifier is the minimal surface Session needs from the JSON-RPC client;
// kept as an interface so document-lifecycle logic is testable without a
// real subprocess.
type notifier interface {
	Notify(method string, params any) error
}

type docState struct {
	version    int32
	languageID string
	text       string
}

// Session tracks the set of currently open documents for one language
// server connection and their monotonically increasing versions.
type Session struct {
	notifier notifier

	mu   sync.RWMutex
	docs map[protocol.DocumentURI]*docState
}

// NewSession constructs a Session that emits didOpen/didChange/didClose
// notifications through n.
func NewSession(n notifier) *Session {
	return &Session{notifier: n, docs: make(map[protocol.DocumentURI]*docState)}
}

// Open opens uri with the given text and language id, emitting
// textDocument/didOpen. It fails if the document is already open.
func (s *Session) Open(uri protocol.DocumentURI, text, languageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[uri]; ok {
		return &brokererr.Error{Kind: brokererr.KindInvalidArgument, Op: "session.Open", FilePath: string(uri), Message: "document already open"}
	}

	params := protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: protocol.LanguageIdentifier(languageID),
			Version:    1,
			Text:       text,
		},
	}
	if err := s.notifier.Notify(protocol.MethodTextDocumentDidOpen, params); err != nil {
		return fmt.Errorf("session.Open: %w", err)
	}

	s.docs[uri] = &docState{version: 1, languageID: languageID, text: text}
	return nil
}

// Update replaces the full content of an already-open document, emitting a
// full-text textDocument/didChange with a strictly incremented version.
func (s *Session) Update(uri protocol.DocumentURI, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.docs[uri]
	if !ok {
		return &brokererr.Error{Kind: brokererr.KindInvalidArgument, Op: "session.Update", FilePath: string(uri), Message: "change on unopened document"}
	}

	st.version++
	st.text = text

	params := protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                st.version,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: text}},
	}
	if err := s.notifier.Notify(protocol.MethodTextDocumentDidChange, params); err != nil {
		return fmt.Errorf("session.Update: %w", err)
	}
	return nil
}

// Close closes uri, emitting textDocument/didClose and dropping its
// version.
func (s *Session) Close(uri protocol.DocumentURI) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[uri]; !ok {
		return nil // closing an already-closed document is a no-op
	}
	delete(s.docs, uri)

	params := protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}
	if err := s.notifier.Notify(protocol.MethodTextDocumentDidClose, params); err != nil {
		return fmt.Errorf("session.Close: %w", err)
	}
	return nil
}

// IsOpen reports whether uri currently has an open document.
func (s *Session) IsOpen(uri protocol.DocumentURI) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[uri]
	return ok
}

// Version returns the current version of uri and whether it is open.
func (s *Session) Version(uri protocol.DocumentURI) (int32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.docs[uri]
	if !ok {
		return 0, false
	}
	return st.version, true
}

// WithTemporaryDocument opens uri if not already open, runs op, and closes
// it afterward iff this call is the one that opened it. op's error is
// returned after cleanup runs.
func (s *Session) WithTemporaryDocument(uri protocol.DocumentURI, text, languageID string, op func() error) error {
	openedHere := !s.IsOpen(uri)
	if openedHere {
		if err := s.Open(uri, text, languageID); err != nil {
			return err
		}
	}

	opErr := op()

	if openedHere {
		if err := s.Close(uri); err != nil && opErr == nil {
			return err
		}
	}
	return opErr
}
