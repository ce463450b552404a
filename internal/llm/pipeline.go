package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/xonecas/jpcore/internal/provider"
)

// messageIndex and reasoningIndex are the stable aggregator indices used for
// the single text-content and reasoning streams a provider may emit; tool
// calls use the provider-assigned ToolCallIndex, offset so it never collides.
const (
	messageIndex   = 0
	reasoningIndex = 1
	toolCallOffset = 2
)

// Pipeline drives one provider's streaming chat completion through reasoning
// extraction, tool-call argument aggregation, and event aggregation,
// producing the normalized Event stream described by the Provider Pipeline.
type Pipeline struct {
	Provider provider.Provider
	Retry    RetryConfig
}

// NewPipeline constructs a Pipeline with the default retry policy.
func NewPipeline(p provider.Provider) *Pipeline {
	return &Pipeline{Provider: p, Retry: DefaultRetryConfig()}
}

// Run opens a chat completion stream, retrying transient failures per the
// configured RetryConfig, and returns the fully aggregated Event sequence.
// Each retry attempt re-opens the provider stream from scratch and starts
// with fresh extractor/aggregator state, matching the "retry re-invokes
// chat_completion_stream from scratch" contract.
func (p *Pipeline) Run(ctx context.Context, messages []provider.Message, tools []provider.Tool, choice provider.ToolChoice) ([]Event, error) {
	return CollectWithRetry(ctx, p.Retry, func(ctx context.Context) ([]Event, error) {
		return p.runOnce(ctx, messages, tools, choice)
	})
}

func (p *Pipeline) runOnce(ctx context.Context, messages []provider.Message, tools []provider.Tool, choice provider.ToolChoice) ([]Event, error) {
	raw, err := p.Provider.ChatStream(ctx, messages, tools, choice)
	if err != nil {
		return nil, classifyOpenError(err)
	}

	extractor := NewReasoningExtractor()
	toolAgg := NewToolCallRequestAggregator()
	agg := NewEventAggregator()

	var out []Event
	var streamErr error

	for streamEvent := range raw {
		switch streamEvent.Type {
		case provider.EventContentDelta:
			reasoningDelta, otherDelta := extractor.Handle(streamEvent.Content)
			if reasoningDelta != "" {
				out = append(out, agg.Ingest(PartEvent(reasoningIndex, ConversationEvent{Kind: KindReasoning, Text: reasoningDelta}))...)
			}
			if otherDelta != "" {
				out = append(out, agg.Ingest(PartEvent(messageIndex, ConversationEvent{Kind: KindMessage, Text: otherDelta}))...)
			}

		case provider.EventReasoningDelta:
			out = append(out, agg.Ingest(PartEvent(reasoningIndex, ConversationEvent{Kind: KindReasoning, Text: streamEvent.Content}))...)

		case provider.EventToolCallBegin:
			toolAgg.AddChunk(streamEvent.ToolCallIndex, streamEvent.ToolCallID, streamEvent.ToolCallName, "")

		case provider.EventToolCallDelta:
			toolAgg.AddChunk(streamEvent.ToolCallIndex, "", "", streamEvent.ToolCallArgs)

		case provider.EventUsage:
			usage := make(map[string]any, 2)
			if streamEvent.InputTokens > 0 {
				usage["input_tokens"] = streamEvent.InputTokens
			}
			if streamEvent.OutputTokens > 0 {
				usage["output_tokens"] = streamEvent.OutputTokens
			}
			agg.AttachMetadata(usage)

		case provider.EventDone:
			extractor.Finalize()
			finalized, aggErr := toolAgg.FinalizeAll()
			for idx, ev := range finalized {
				out = append(out, agg.Ingest(PartEvent(idx+toolCallOffset, ev))...)
			}
			if aggErr != nil {
				return nil, &ProviderError{Kind: ErrAggregation, Cause: aggErr}
			}
			out = append(out, agg.Ingest(FinishedEvent(EndCompleted))...)

		case provider.EventError:
			streamErr = streamEvent.Err
		}
	}

	if streamErr != nil {
		return nil, classifyStreamError(streamErr)
	}
	return out, nil
}

func classifyOpenError(err error) error {
	return &ProviderError{Kind: ErrTransient, Cause: fmt.Errorf("open stream: %w", err)}
}

func classifyStreamError(err error) error {
	log.Debug().Err(err).Msg("llm: provider stream error")
	return &ProviderError{Kind: ErrTransient, Cause: err}
}
