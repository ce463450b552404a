package main

import (
	"testing"
	"time"

	"github.com/xonecas/jpcore/internal/convo"
	"github.com/xonecas/jpcore/internal/llm"
)

func TestBuildMessagesMergesTurnIntoOneAssistantMessage(t *testing.T) {
	now := time.Now().UTC()
	events := []convo.Event{
		convo.NewChatRequest("hi", nil),
		{Type: convo.KindChatResponse, Timestamp: now, ResponseKind: convo.ChatResponseReasoning, ResponseText: "thinking"},
		{Type: convo.KindChatResponse, Timestamp: now, ResponseKind: convo.ChatResponseMessage, ResponseText: "hello"},
		convo.NewToolCallRequest("tc1", "lookup", map[string]any{"q": "go"}),
		convo.NewToolCallResponseOK("tc1", "result"),
	}

	messages := buildMessages(events)
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3: %+v", len(messages), messages)
	}
	if messages[0].Role != "user" || messages[0].Content != "hi" {
		t.Fatalf("messages[0] = %+v, want user/hi", messages[0])
	}
	assistant := messages[1]
	if assistant.Role != "assistant" || assistant.Reasoning != "thinking" || assistant.Content != "hello" {
		t.Fatalf("messages[1] = %+v, want merged assistant turn", assistant)
	}
	if len(assistant.ToolCalls) != 1 || assistant.ToolCalls[0].Name != "lookup" {
		t.Fatalf("messages[1].ToolCalls = %+v, want one lookup call", assistant.ToolCalls)
	}
	toolMsg := messages[2]
	if toolMsg.Role != "tool" || toolMsg.ToolCallID != "tc1" || toolMsg.FunctionName != "lookup" || toolMsg.Content != "result" {
		t.Fatalf("messages[2] = %+v, want tool response linked to lookup", toolMsg)
	}
}

func TestBuildMessagesStartsFreshAssistantMessageAfterToolResponse(t *testing.T) {
	events := []convo.Event{
		convo.NewChatRequest("hi", nil),
		convo.NewChatResponseMessage("first"),
		convo.NewToolCallRequest("tc1", "lookup", nil),
		convo.NewToolCallResponseOK("tc1", "ok"),
		convo.NewChatResponseMessage("second"),
	}

	messages := buildMessages(events)
	if len(messages) != 4 {
		t.Fatalf("got %d messages, want 4: %+v", len(messages), messages)
	}
	if messages[1].Content != "first" {
		t.Fatalf("messages[1].Content = %q, want first", messages[1].Content)
	}
	if messages[3].Content != "second" {
		t.Fatalf("messages[3].Content = %q, want second", messages[3].Content)
	}
}

func TestToConvoEventConvertsEachKind(t *testing.T) {
	msg, err := toConvoEvent(llm.ConversationEvent{Kind: llm.KindMessage, Text: "hi"})
	if err != nil || msg.Type != convo.KindChatResponse || msg.ResponseKind != convo.ChatResponseMessage || msg.ResponseText != "hi" {
		t.Fatalf("message conversion = %+v, err %v", msg, err)
	}

	reasoning, err := toConvoEvent(llm.ConversationEvent{Kind: llm.KindReasoning, Text: "because"})
	if err != nil || reasoning.ResponseKind != convo.ChatResponseReasoning || reasoning.ResponseText != "because" {
		t.Fatalf("reasoning conversion = %+v, err %v", reasoning, err)
	}

	call, err := toConvoEvent(llm.ConversationEvent{
		Kind: llm.KindToolCallRequest, ToolCallID: "tc1", ToolCallName: "lookup",
		ToolCallArguments: map[string]any{"q": "go"},
	})
	if err != nil || call.Type != convo.KindToolCallRequest || call.ToolCallName != "lookup" {
		t.Fatalf("tool call conversion = %+v, err %v", call, err)
	}

	if _, err := toConvoEvent(llm.ConversationEvent{Kind: llm.EventKind(99)}); err == nil {
		t.Fatal("expected error for unknown event kind")
	}
}
