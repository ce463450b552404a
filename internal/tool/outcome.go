// Package tool implements the Tool Coordinator: resolving a ToolCallRequest
// against builtin and MCP-provided tools, running the configured approval
// workflow, and dispatching a conversation turn's tool calls concurrently.
package tool

import "github.com/xonecas/jpcore/internal/convo"

// OutcomeKind discriminates the three shapes a tool execution can return.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeError
	OutcomeNeedsInput
)

// InquiryDraft is the question a tool wants answered before it can proceed,
// prior to being assigned an id and persisted as an InquiryRequest event.
type InquiryDraft struct {
	QuestionText string
	AnswerKind   convo.InquiryAnswerKind
	Options      []any
	Default      any
}

// Outcome is the result of one tool execution attempt.
type Outcome struct {
	Kind OutcomeKind

	// OutcomeSuccess.
	Content string

	// OutcomeError. Transient marks the failure as possibly temporary; the
	// coordinator records it as an error ToolCallResponse like any other
	// failure and does not retry the tool.
	Message   string
	Trace     string
	Transient bool

	// OutcomeNeedsInput.
	Question InquiryDraft
}

// Success builds a successful Outcome.
func Success(content string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Content: content}
}

// Failure builds an error Outcome.
func Failure(message, trace string, transient bool) Outcome {
	return Outcome{Kind: OutcomeError, Message: message, Trace: trace, Transient: transient}
}

// NeedsInput builds an Outcome requesting a question be put to the user
// before the tool can complete.
func NeedsInput(draft InquiryDraft) Outcome {
	return Outcome{Kind: OutcomeNeedsInput, Question: draft}
}
