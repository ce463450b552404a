package llm

import "testing"

func TestReasoningExtractorSplitAcrossChunks(t *testing.T) {
	r := NewReasoningExtractor()
	for _, chunk := range []string{"pre <thi", "nk>\nhidden reason\n</thi", "nk>\npost"} {
		r.Handle(chunk)
	}
	r.Finalize()

	if got := r.Reasoning(); got != "hidden reason\n" {
		t.Fatalf("Reasoning() = %q, want %q", got, "hidden reason\n")
	}
	if got := r.Other(); got != "pre post" {
		t.Fatalf("Other() = %q, want %q", got, "pre post")
	}
}

func TestReasoningExtractorNoTag(t *testing.T) {
	r := NewReasoningExtractor()
	r.Handle("just plain text")
	r.Finalize()

	if got := r.Other(); got != "just plain text" {
		t.Fatalf("Other() = %q, want %q", got, "just plain text")
	}
	if got := r.Reasoning(); got != "" {
		t.Fatalf("Reasoning() = %q, want empty", got)
	}
}

func TestReasoningExtractorUnclosedAtEnd(t *testing.T) {
	r := NewReasoningExtractor()
	r.Handle("before <think>\nnever closes")
	r.Finalize()

	if got := r.Other(); got != "before " {
		t.Fatalf("Other() = %q, want %q", got, "before ")
	}
	if got := r.Reasoning(); got != "never closes" {
		t.Fatalf("Reasoning() = %q, want %q", got, "never closes")
	}
}

func TestReasoningExtractorSingleChunk(t *testing.T) {
	r := NewReasoningExtractor()
	r.Handle("a<think>\nb</think>\nc")
	r.Finalize()

	if got := r.Reasoning(); got != "b" {
		t.Fatalf("Reasoning() = %q, want %q", got, "b")
	}
	if got := r.Other(); got != "ac" {
		t.Fatalf("Other() = %q, want %q", got, "ac")
	}
}
