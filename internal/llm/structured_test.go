package llm

import (
	"context"
	"encoding/json"
	"testing"
)

func TestStructuredQueryValidate(t *testing.T) {
	sq := StructuredQuery{
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {"title": {"type": "string"}},
			"required": ["title"]
		}`),
	}

	if err := sq.Validate(json.RawMessage(`{"title":"hello"}`)); err != nil {
		t.Fatalf("expected valid payload to pass: %v", err)
	}
	if err := sq.Validate(json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected missing required field to fail")
	}
}

func TestRunStructuredQueryRetriesOnValidatorFailure(t *testing.T) {
	sq := StructuredQuery{
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {"n": {"type": "integer", "minimum": 10}},
			"required": ["n"]
		}`),
		MaxAttempts: 3,
	}

	attempts := 0
	payload, err := RunStructuredQuery(context.Background(), sq, func(ctx context.Context, force bool, feedback string) (json.RawMessage, error) {
		attempts++
		if attempts == 1 {
			return json.RawMessage(`{"n":1}`), nil
		}
		return json.RawMessage(`{"n":20}`), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
	var out struct{ N int }
	if err := json.Unmarshal(payload, &out); err != nil || out.N != 20 {
		t.Fatalf("unexpected payload: %s", payload)
	}
}

func TestRunStructuredQueryFallsBackOnForcedCallRefusal(t *testing.T) {
	sq := StructuredQuery{
		Schema:      json.RawMessage(`{"type":"object"}`),
		MaxAttempts: 2,
	}

	var sawFallback bool
	_, err := RunStructuredQuery(context.Background(), sq, func(ctx context.Context, force bool, feedback string) (json.RawMessage, error) {
		if force {
			return nil, ErrForceToolCallUnsupported
		}
		sawFallback = true
		return json.RawMessage(`{}`), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sawFallback {
		t.Fatal("expected fallback to textual-instruction completion")
	}
}
