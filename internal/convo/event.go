// Package convo implements the event-sourced conversation store: immutable,
// append-only per-conversation JSONL event logs with content-addressed ids,
// at-rest obfuscation of free-text fields, lazy loading, and a single
// always-active conversation.
package convo

import (
	"encoding/json"
	"time"
)

// EventKind discriminates the tagged variants of a persisted Event.
type EventKind string

const (
	KindTurnStart        EventKind = "turn_start"
	KindChatRequest      EventKind = "chat_request"
	KindChatResponse     EventKind = "chat_response"
	KindToolCallRequest  EventKind = "tool_call_request"
	KindToolCallResponse EventKind = "tool_call_response"
	KindInquiryRequest   EventKind = "inquiry_request"
	KindInquiryResponse  EventKind = "inquiry_response"
)

// ChatResponseKind distinguishes the two ChatResponse sub-variants
// (Message, Reasoning); mirrors the Rust predecessor's untagged enum.
type ChatResponseKind string

const (
	ChatResponseMessage   ChatResponseKind = "message"
	ChatResponseReasoning ChatResponseKind = "reasoning"
)

// InquirySourceKind names who raised an InquiryRequest.
type InquirySourceKind string

const (
	InquirySourceTool      InquirySourceKind = "tool"
	InquirySourceAssistant InquirySourceKind = "assistant"
	InquirySourceUser      InquirySourceKind = "user"
	InquirySourceOther     InquirySourceKind = "other"
)

// InquiryAnswerKind names the shape of answer an InquiryRequest expects.
type InquiryAnswerKind string

const (
	InquiryAnswerBoolean InquiryAnswerKind = "boolean"
	InquiryAnswerSelect  InquiryAnswerKind = "select"
	InquiryAnswerText    InquiryAnswerKind = "text"
)

// Event is a single immutable record in a conversation's log. Only the
// fields relevant to Type are populated; the flat layout (one struct for
// every kind, discriminated by a tag field) matches the style already used
// by provider.StreamEvent.
type Event struct {
	Type      EventKind      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	// ChatRequest.
	RequestContent string          `json:"request_content,omitempty"`
	RequestSchema  json.RawMessage `json:"request_schema,omitempty"`

	// ChatResponse (Message or Reasoning).
	ResponseKind     ChatResponseKind `json:"response_kind,omitempty"`
	ResponseText     string           `json:"response_text,omitempty"`
	ResponseMetadata map[string]any   `json:"response_metadata,omitempty"`

	// ToolCallRequest.
	ToolCallID   string         `json:"tool_call_id,omitempty"`
	ToolCallName string         `json:"tool_call_name,omitempty"`
	Arguments    map[string]any `json:"arguments,omitempty"`
	ToolAnswers  map[string]any `json:"tool_answers,omitempty"`

	// ToolCallResponse; ToolCallID above is reused as the referenced request id.
	ToolResponseOK      bool   `json:"tool_response_ok,omitempty"`
	ToolResponseContent string `json:"content,omitempty"`

	// InquiryRequest.
	InquiryID           string            `json:"inquiry_id,omitempty"`
	InquirySource       InquirySourceKind `json:"inquiry_source,omitempty"`
	InquirySourceName   string            `json:"inquiry_source_name,omitempty"`
	InquiryQuestionText string            `json:"inquiry_question_text,omitempty"`
	InquiryAnswerKind   InquiryAnswerKind `json:"inquiry_answer_kind,omitempty"`
	InquiryOptions      []any             `json:"inquiry_options,omitempty"`
	InquiryDefault      any               `json:"inquiry_default,omitempty"`

	// InquiryResponse; InquiryID above is reused as the referenced request id.
	InquiryAnswer any `json:"inquiry_answer,omitempty"`
}

// NewTurnStart builds a TurnStart boundary marker event.
func NewTurnStart() Event {
	return Event{Type: KindTurnStart, Timestamp: time.Now().UTC()}
}

// NewChatRequest builds a ChatRequest event.
func NewChatRequest(content string, schema json.RawMessage) Event {
	return Event{Type: KindChatRequest, Timestamp: time.Now().UTC(), RequestContent: content, RequestSchema: schema}
}

// NewChatResponseMessage builds a ChatResponse::Message event.
func NewChatResponseMessage(text string) Event {
	return Event{Type: KindChatResponse, Timestamp: time.Now().UTC(), ResponseKind: ChatResponseMessage, ResponseText: text}
}

// NewChatResponseReasoning builds a ChatResponse::Reasoning event.
func NewChatResponseReasoning(text string, metadata map[string]any) Event {
	return Event{
		Type: KindChatResponse, Timestamp: time.Now().UTC(),
		ResponseKind: ChatResponseReasoning, ResponseText: text, ResponseMetadata: metadata,
	}
}

// NewToolCallRequest builds a ToolCallRequest event.
func NewToolCallRequest(id, name string, arguments map[string]any) Event {
	return Event{Type: KindToolCallRequest, Timestamp: time.Now().UTC(), ToolCallID: id, ToolCallName: name, Arguments: arguments}
}

// NewToolCallResponseOK builds a successful ToolCallResponse event.
func NewToolCallResponseOK(requestID, content string) Event {
	return Event{Type: KindToolCallResponse, Timestamp: time.Now().UTC(), ToolCallID: requestID, ToolResponseOK: true, ToolResponseContent: content}
}

// NewToolCallResponseErr builds a failed ToolCallResponse event.
func NewToolCallResponseErr(requestID, content string) Event {
	return Event{Type: KindToolCallResponse, Timestamp: time.Now().UTC(), ToolCallID: requestID, ToolResponseOK: false, ToolResponseContent: content}
}

// NewInquiryRequest builds an InquiryRequest event.
func NewInquiryRequest(id string, source InquirySourceKind, sourceName, questionText string, answerKind InquiryAnswerKind, options []any, def any) Event {
	return Event{
		Type: KindInquiryRequest, Timestamp: time.Now().UTC(),
		InquiryID: id, InquirySource: source, InquirySourceName: sourceName,
		InquiryQuestionText: questionText, InquiryAnswerKind: answerKind,
		InquiryOptions: options, InquiryDefault: def,
	}
}

// NewInquiryResponse builds an InquiryResponse event.
func NewInquiryResponse(requestID string, answer any) Event {
	return Event{Type: KindInquiryResponse, Timestamp: time.Now().UTC(), InquiryID: requestID, InquiryAnswer: answer}
}
