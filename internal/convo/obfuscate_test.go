package convo

import "testing"

func TestObfuscateRoundTrip(t *testing.T) {
	original := Event{
		Type:         KindToolCallRequest,
		Metadata:     map[string]any{"latency_ms": 42, "model": "gpt-5"},
		ToolCallID:   "call-1",
		ToolCallName: "search",
		Arguments:    map[string]any{"query": "weather", "nested": map[string]any{"unit": "celsius"}},
		ToolAnswers:  map[string]any{"confirmed": "yes"},
	}

	obf := obfuscateEvent(original)
	if obf.Arguments["query"] == "weather" {
		t.Fatal("expected arguments to be obfuscated at rest")
	}
	if obf.Metadata["model"] == "gpt-5" {
		t.Fatal("expected metadata to be obfuscated at rest")
	}

	back := deobfuscateEvent(obf)
	if back.Arguments["query"] != "weather" {
		t.Fatalf("query = %v, want weather", back.Arguments["query"])
	}
	nested, ok := back.Arguments["nested"].(map[string]any)
	if !ok || nested["unit"] != "celsius" {
		t.Fatalf("nested arguments = %v", back.Arguments["nested"])
	}
	if back.ToolAnswers["confirmed"] != "yes" {
		t.Fatalf("tool answers = %v", back.ToolAnswers)
	}
	if back.Metadata["model"] != "gpt-5" {
		t.Fatalf("metadata = %v", back.Metadata)
	}
	// latency_ms is a non-string leaf; it must pass through untouched.
	if back.Metadata["latency_ms"] != 42 {
		t.Fatalf("latency_ms = %v, want unchanged 42", back.Metadata["latency_ms"])
	}
}

func TestChatTextNeverObfuscated(t *testing.T) {
	e := Event{Type: KindChatRequest, RequestContent: "plain text, readable at rest"}
	obf := obfuscateEvent(e)
	if obf.RequestContent != e.RequestContent {
		t.Fatalf("chat request content must never be obfuscated, got %q", obf.RequestContent)
	}
}

func TestToolResponseContentObfuscated(t *testing.T) {
	e := Event{Type: KindToolCallResponse, ToolCallID: "call-1", ToolResponseOK: true, ToolResponseContent: "sunny, 20C"}
	obf := obfuscateEvent(e)
	if obf.ToolResponseContent == e.ToolResponseContent {
		t.Fatal("expected tool response content to be obfuscated at rest")
	}
	back := deobfuscateEvent(obf)
	if back.ToolResponseContent != e.ToolResponseContent {
		t.Fatalf("tool response content = %q, want %q", back.ToolResponseContent, e.ToolResponseContent)
	}
}

func TestDecodeTolerantOfNonBase64(t *testing.T) {
	if got := decodeString("not-valid-base64!!"); got != "not-valid-base64!!" {
		t.Fatalf("decodeString should pass through invalid base64 unchanged, got %q", got)
	}
}
