package llm

import "testing"

func TestAggregatorChunkedMessage(t *testing.T) {
	agg := NewEventAggregator()

	var out []Event
	out = append(out, agg.Ingest(PartEvent(0, ConversationEvent{Kind: KindMessage, Text: "Hel"}))...)
	out = append(out, agg.Ingest(PartEvent(0, ConversationEvent{Kind: KindMessage, Text: "lo"}))...)
	out = append(out, agg.Ingest(FlushEvent(0, nil))...)
	out = append(out, agg.Ingest(FinishedEvent(EndCompleted))...)

	if len(out) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(out), out)
	}
	if out[0].Type != EventPart || out[0].Event.Text != "Hello" {
		t.Fatalf("out[0] = %+v, want merged Part Hello", out[0])
	}
	if out[1].Type != EventFlush {
		t.Fatalf("out[1] = %+v, want Flush", out[1])
	}
	if out[2].Type != EventFinished || out[2].EndReason != EndCompleted {
		t.Fatalf("out[2] = %+v, want Finished(Completed)", out[2])
	}
}

func TestAggregatorKindChangeSameIndex(t *testing.T) {
	agg := NewEventAggregator()

	var out []Event
	out = append(out, agg.Ingest(PartEvent(0, ConversationEvent{Kind: KindMessage, Text: "a"}))...)
	out = append(out, agg.Ingest(PartEvent(0, ConversationEvent{Kind: KindReasoning, Text: "b"}))...)
	out = append(out, agg.Ingest(FlushEvent(0, nil))...)
	out = append(out, agg.Ingest(FinishedEvent(EndCompleted))...)

	if len(out) != 5 {
		t.Fatalf("got %d events, want 5: %+v", len(out), out)
	}
	if out[0].Event.Kind != KindMessage || out[0].Event.Text != "a" {
		t.Fatalf("out[0] = %+v", out[0])
	}
	if out[1].Type != EventFlush {
		t.Fatalf("out[1] = %+v, want flush of stale message", out[1])
	}
	if out[2].Event.Kind != KindReasoning || out[2].Event.Text != "b" {
		t.Fatalf("out[2] = %+v", out[2])
	}
	if out[3].Type != EventFlush {
		t.Fatalf("out[3] = %+v, want flush of reasoning", out[3])
	}
	if out[4].Type != EventFinished {
		t.Fatalf("out[4] = %+v, want Finished", out[4])
	}
}

func TestAggregatorIdempotentOnFlushedStream(t *testing.T) {
	agg := NewEventAggregator()

	in := []Event{
		PartEvent(0, ConversationEvent{Kind: KindMessage, Text: "x"}),
		FlushEvent(0, nil),
		PartEvent(1, ConversationEvent{Kind: KindMessage, Text: "y"}),
		FlushEvent(1, nil),
		FinishedEvent(EndCompleted),
	}

	var out []Event
	for _, e := range in {
		out = append(out, agg.Ingest(e)...)
	}

	if len(out) != len(in) {
		t.Fatalf("got %d events, want %d (idempotent passthrough): %+v", len(out), len(in), out)
	}
}

func TestAggregatorEmptyFlushIsNoop(t *testing.T) {
	agg := NewEventAggregator()
	out := agg.Ingest(FlushEvent(5, map[string]any{"k": "v"}))
	if out != nil {
		t.Fatalf("expected no-op for flush of empty index, got %+v", out)
	}
}
