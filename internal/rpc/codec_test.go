package rpc

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
)

func TestEncoderDecoderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	id := json.RawMessage(`1`)
	msg := rawMessage{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  "initialize",
		Params:  json.RawMessage(`{"processId":1}`),
	}
	if err := enc.writeRaw(msg); err != nil {
		t.Fatalf("writeRaw() error = %v", err)
	}

	dec := NewDecoder(&buf)
	got, err := dec.readMessage()
	if err != nil {
		t.Fatalf("readMessage() error = %v", err)
	}
	if got.Method != "initialize" || got.JSONRPC != "2.0" {
		t.Errorf("readMessage() = %+v, want Method=initialize JSONRPC=2.0", got)
	}
	if string(*got.ID) != "1" {
		t.Errorf("readMessage() ID = %s, want 1", *got.ID)
	}
}

func TestDecoderIgnoresExtraHeaders(t *testing.T) {
	body := `{"jsonrpc":"2.0","method":"exit"}`
	raw := "Content-Type: application/vscode-jsonrpc; charset=utf-8\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body

	dec := NewDecoder(strings.NewReader(raw))
	got, err := dec.readMessage()
	if err != nil {
		t.Fatalf("readMessage() error = %v", err)
	}
	if got.Method != "exit" {
		t.Errorf("readMessage() Method = %q, want %q", got.Method, "exit")
	}
}

func TestDecoderMissingContentLengthErrors(t *testing.T) {
	raw := "Content-Type: application/json\r\n\r\n{}"
	dec := NewDecoder(strings.NewReader(raw))
	if _, err := dec.readMessage(); err == nil {
		t.Fatal("expected an error when Content-Length is missing")
	}
}

func TestDecoderMalformedBodyReturnsFramingError(t *testing.T) {
	body := "not json"
	raw := "Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body
	dec := NewDecoder(strings.NewReader(raw))

	_, err := dec.readMessage()
	if err == nil {
		t.Fatal("expected an error for a malformed body")
	}
	if !IsFramingError(err) {
		t.Errorf("IsFramingError(%v) = false, want true", err)
	}
}
