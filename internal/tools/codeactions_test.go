package tools

import (
	"encoding/json"
	"testing"
)

func TestDecodeCodeActionsParsesLiterals(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"title":"Add missing import","kind":"quickfix"}`),
		json.RawMessage(`{"title":"Extract function","kind":"refactor.extract"}`),
	}
	actions := decodeCodeActions(raw)
	if len(actions) != 2 {
		t.Fatalf("decodeCodeActions() returned %d actions, want 2", len(actions))
	}
	if actions[0].Title != "Add missing import" || actions[1].Kind != "refactor.extract" {
		t.Errorf("decodeCodeActions() = %+v, want matching titles/kinds", actions)
	}
}

func TestDecodeCodeActionsSkipsUnparseableOrTitlelessEntries(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"title":""}`),
		json.RawMessage(`not json`),
		json.RawMessage(`{"title":"Keep me"}`),
	}
	actions := decodeCodeActions(raw)
	if len(actions) != 1 || actions[0].Title != "Keep me" {
		t.Errorf("decodeCodeActions() = %+v, want only the valid titled entry", actions)
	}
}

func TestDecodeCodeActionsEmptyInput(t *testing.T) {
	if actions := decodeCodeActions(nil); len(actions) != 0 {
		t.Errorf("decodeCodeActions(nil) = %v, want empty", actions)
	}
}
