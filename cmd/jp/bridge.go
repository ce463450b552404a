package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xonecas/jpcore/internal/convo"
	"github.com/xonecas/jpcore/internal/llm"
	"github.com/xonecas/jpcore/internal/mcp"
	"github.com/xonecas/jpcore/internal/provider"
	"github.com/xonecas/jpcore/internal/tool"
)

// buildMessages reconstructs the provider-facing message history from a
// conversation's persisted event log. A ChatRequest becomes a user message;
// consecutive ChatResponse/ToolCallRequest events accumulate into a single
// assistant message, mirroring how one provider turn produced all of them;
// a ToolCallResponse becomes its own tool-role message.
func buildMessages(events []convo.Event) []provider.Message {
	var messages []provider.Message
	var current *provider.Message
	toolNames := make(map[string]string)

	for _, e := range events {
		switch e.Type {
		case convo.KindChatRequest:
			messages = append(messages, provider.Message{Role: "user", Content: e.RequestContent, CreatedAt: e.Timestamp})
			current = nil

		case convo.KindChatResponse:
			current = assistantMessage(&messages, current, e.Timestamp)
			switch e.ResponseKind {
			case convo.ChatResponseMessage:
				current.Content += e.ResponseText
			case convo.ChatResponseReasoning:
				current.Reasoning += e.ResponseText
			}

		case convo.KindToolCallRequest:
			current = assistantMessage(&messages, current, e.Timestamp)
			toolNames[e.ToolCallID] = e.ToolCallName
			args, _ := json.Marshal(e.Arguments)
			current.ToolCalls = append(current.ToolCalls, provider.ToolCall{
				ID: e.ToolCallID, Name: e.ToolCallName, Arguments: args,
			})

		case convo.KindToolCallResponse:
			messages = append(messages, provider.Message{
				Role:         "tool",
				Content:      e.ToolResponseContent,
				ToolCallID:   e.ToolCallID,
				FunctionName: toolNames[e.ToolCallID],
				CreatedAt:    e.Timestamp,
			})
			current = nil
		}
	}
	return messages
}

// assistantMessage returns the assistant message currently being
// accumulated, appending a fresh one if the previous event closed it out.
func assistantMessage(messages *[]provider.Message, current *provider.Message, ts time.Time) *provider.Message {
	if current != nil {
		return current
	}
	*messages = append(*messages, provider.Message{Role: "assistant", CreatedAt: ts})
	return &(*messages)[len(*messages)-1]
}

// toConvoEvent converts one finalized pipeline event into the persisted
// conversation event it represents.
func toConvoEvent(ce llm.ConversationEvent) (convo.Event, error) {
	switch ce.Kind {
	case llm.KindMessage:
		return convo.NewChatResponseMessage(ce.Text), nil
	case llm.KindReasoning:
		return convo.NewChatResponseReasoning(ce.Text, ce.Metadata), nil
	case llm.KindToolCallRequest:
		return convo.NewToolCallRequest(ce.ToolCallID, ce.ToolCallName, ce.ToolCallArguments), nil
	default:
		return convo.Event{}, fmt.Errorf("jp: unknown conversation event kind %d", ce.Kind)
	}
}

// toProviderToolChoice converts a parsed tool.Choice into the provider
// package's wire-agnostic ToolChoice, the boundary between the CLI/config
// string syntax and the Provider Pipeline's request-building concern.
func toProviderToolChoice(c tool.Choice) provider.ToolChoice {
	switch c.Kind {
	case tool.ChoiceNone:
		return provider.ToolChoice{Kind: provider.ToolChoiceNone}
	case tool.ChoiceRequired:
		return provider.ToolChoice{Kind: provider.ToolChoiceRequired}
	case tool.ChoiceFunction:
		return provider.ToolChoice{Kind: provider.ToolChoiceFunction, Function: c.Function}
	default:
		return provider.ToolChoice{Kind: provider.ToolChoiceAuto}
	}
}

// toProviderTools converts the tool registry's advertised shapes into the
// schema list a provider's ChatStream expects.
func toProviderTools(tools []mcp.Tool) []provider.Tool {
	out := make([]provider.Tool, len(tools))
	for i, t := range tools {
		out[i] = provider.Tool{Name: t.Name, Description: t.Description, Parameters: t.InputSchema}
	}
	return out
}
