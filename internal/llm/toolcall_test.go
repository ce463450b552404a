package llm

import (
	"errors"
	"testing"
)

func TestToolCallRequestAggregatorAssembly(t *testing.T) {
	agg := NewToolCallRequestAggregator()

	agg.AddChunk(1, "call_1", "get_weather", `{"city":`)
	agg.AddChunk(1, "", "", `"Paris"}`)

	ev, err := agg.Finalize(1)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if ev.ToolCallID != "call_1" || ev.ToolCallName != "get_weather" {
		t.Fatalf("unexpected id/name: %+v", ev)
	}
	if ev.ToolCallArguments["city"] != "Paris" {
		t.Fatalf("unexpected arguments: %+v", ev.ToolCallArguments)
	}
}

func TestToolCallRequestAggregatorEmptyArguments(t *testing.T) {
	agg := NewToolCallRequestAggregator()
	agg.AddChunk(0, "call_0", "no_args", "   ")

	ev, err := agg.Finalize(0)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(ev.ToolCallArguments) != 0 {
		t.Fatalf("expected empty arguments, got %+v", ev.ToolCallArguments)
	}
}

func TestToolCallRequestAggregatorErrors(t *testing.T) {
	agg := NewToolCallRequestAggregator()

	if _, err := agg.Finalize(99); err == nil {
		t.Fatal("expected error for unknown index")
	} else {
		var aggErr *AggregationError
		if !errors.As(err, &aggErr) || aggErr.Reason != reasonUnknownIndex {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	agg.AddChunk(0, "", "get_weather", "{}")
	if _, err := agg.Finalize(0); err == nil {
		t.Fatal("expected missing id error")
	}

	agg.AddChunk(1, "call_1", "", "{}")
	if _, err := agg.Finalize(1); err == nil {
		t.Fatal("expected missing name error")
	}

	agg.AddChunk(2, "call_2", "bad", "not json")
	if _, err := agg.Finalize(2); err == nil {
		t.Fatal("expected invalid json error")
	}
}

func TestToolCallRequestAggregatorFinalizeAll(t *testing.T) {
	agg := NewToolCallRequestAggregator()
	agg.AddChunk(0, "a", "fn_a", "{}")
	agg.AddChunk(1, "b", "fn_b", "{}")

	all, err := agg.FinalizeAll()
	if err != nil {
		t.Fatalf("FinalizeAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d results, want 2", len(all))
	}
}

func TestToolCallRequestAggregatorFinalizeAllSurfacesError(t *testing.T) {
	agg := NewToolCallRequestAggregator()
	agg.AddChunk(0, "a", "fn_a", "{}")
	agg.AddChunk(1, "", "fn_b", "{}") // missing id

	_, err := agg.FinalizeAll()
	if err == nil {
		t.Fatal("expected error from malformed tool call, got nil")
	}
	var aggErr *AggregationError
	if !errors.As(err, &aggErr) || aggErr.Reason != reasonMissingID {
		t.Fatalf("unexpected error: %v", err)
	}
}
