// Package llm implements the provider-agnostic streaming event pipeline:
// normalized event multiplexing, chunk aggregation, reasoning extraction,
// retry-with-backoff, and structured-output coercion on top of the
// provider-specific streams in internal/provider.
package llm

import "encoding/json"

// EventKind discriminates the payload carried by a ConversationEvent, the
// same way provider.StreamEvent discriminates its own provider-facing
// variants.
type EventKind int

const (
	KindMessage EventKind = iota
	KindReasoning
	KindToolCallRequest
)

func (k EventKind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindReasoning:
		return "reasoning"
	case KindToolCallRequest:
		return "tool_call_request"
	default:
		return "unknown"
	}
}

// ConversationEvent is one fully- or partially-assembled assistant output:
// a message chunk, a reasoning chunk, or a tool call request chunk. Only the
// fields relevant to Kind are populated.
type ConversationEvent struct {
	Kind EventKind

	// Message / Reasoning text.
	Text string

	// Reasoning provider metadata (usage, signatures, ...).
	Metadata map[string]any

	// ToolCallRequest fields.
	ToolCallID        string
	ToolCallName      string
	ToolCallArguments map[string]any
}

// sameKind reports whether two events can be merged by EventAggregator.
func (e ConversationEvent) sameKind(other ConversationEvent) bool {
	return e.Kind == other.Kind
}

// StreamEndReason is the terminal reason a provider stream stopped.
type StreamEndReason struct {
	Reason string // "completed", "max_tokens", or "other"
	Other  string // populated when Reason == "other"
}

var (
	EndCompleted = StreamEndReason{Reason: "completed"}
	EndMaxTokens = StreamEndReason{Reason: "max_tokens"}
)

func EndOther(v string) StreamEndReason { return StreamEndReason{Reason: "other", Other: v} }

// StreamEventType discriminates Event: Part, Flush, or Finished.
type StreamEventType int

const (
	EventPart StreamEventType = iota
	EventFlush
	EventFinished
)

// Event is the normalized unit yielded by the aggregator: either a partial
// or finalized ConversationEvent at a stable index, or the terminal signal.
type Event struct {
	Type StreamEventType

	// Part / Flush.
	Index int
	Event ConversationEvent

	// Flush metadata, attached to the emitted event before it is sent.
	FlushMetadata map[string]any

	// Finished.
	EndReason StreamEndReason
}

// PartEvent builds an EventPart.
func PartEvent(index int, ce ConversationEvent) Event {
	return Event{Type: EventPart, Index: index, Event: ce}
}

// FlushEvent builds an EventFlush.
func FlushEvent(index int, metadata map[string]any) Event {
	return Event{Type: EventFlush, Index: index, FlushMetadata: metadata}
}

// FinishedEvent builds an EventFinished.
func FinishedEvent(reason StreamEndReason) Event {
	return Event{Type: EventFinished, EndReason: reason}
}

// rawArguments renders arguments as canonical JSON, used when constructing
// ToolCallRequest conversation events for persistence.
func rawArguments(args map[string]any) (json.RawMessage, error) {
	if len(args) == 0 {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(args)
}
