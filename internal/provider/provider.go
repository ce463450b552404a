// Package provider defines the LLM provider interface and implementations.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrProviderNotFound is returned when a requested provider doesn't exist.
var ErrProviderNotFound = errors.New("provider not found")

// ErrModelNotFound is returned by ModelDetails when the named model is not
// among the provider's listed models.
var ErrModelNotFound = errors.New("model not found")

// Message represents a chat message.
type Message struct {
	Role         string
	Content      string
	Reasoning    string     // Model reasoning/thinking content (optional)
	ToolCalls    []ToolCall // For assistant messages with tool calls
	ToolCallID   string     // For tool result messages
	FunctionName string     // For tool result messages: name of the called function (required by Gemini)
	CreatedAt    time.Time  // Message timestamp
	InputTokens  int        // Token usage for this LLM call (assistant messages only)
	OutputTokens int        // Token usage for this LLM call (assistant messages only)
}

// Tool represents a tool/function definition for the LLM.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema
}

// ToolCall represents a tool call made by the LLM.
type ToolCall struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Arguments        json.RawMessage `json:"arguments"`
	ThoughtSignature string          `json:"thought_signature,omitempty"`
}

// ChatResponse represents the response from a chat completion.
type ChatResponse struct {
	Content      string     // Text content (may be empty if tool calls)
	ToolCalls    []ToolCall // Tool calls (may be empty if text response)
	Reasoning    string     // Model reasoning content (optional)
	InputTokens  int        // Input/prompt token count (0 if unavailable)
	OutputTokens int        // Output/completion token count (0 if unavailable)
}

// StreamEventType identifies the kind of streaming event.
type StreamEventType int

const (
	// EventContentDelta carries a chunk of text content.
	EventContentDelta StreamEventType = iota
	// EventReasoningDelta carries a chunk of reasoning/thinking content.
	EventReasoningDelta
	// EventToolCallBegin signals the start of a new tool call with ID and name.
	EventToolCallBegin
	// EventToolCallDelta carries a chunk of tool call arguments.
	EventToolCallDelta
	// EventUsage carries token usage statistics.
	EventUsage
	// EventDone signals the stream is complete.
	EventDone
	// EventError signals a stream error.
	EventError
)

// StreamEvent represents a single event in a streamed LLM response.
type StreamEvent struct {
	Type StreamEventType

	// Content or reasoning text delta (for EventContentDelta, EventReasoningDelta).
	Content string

	// Tool call fields (for EventToolCallBegin, EventToolCallDelta).
	ToolCallIndex     int    // Index of the tool call in the response (from OpenAI spec)
	ToolCallID        string // Set on EventToolCallBegin
	ToolCallName      string // Set on EventToolCallBegin
	ToolCallSignature string // Optional thought signature for Gemini tool calls
	ToolCallArgs      string // Argument fragment on EventToolCallDelta

	// Token usage (for EventUsage).
	InputTokens  int
	OutputTokens int

	// Error (for EventError).
	Err error
}

// ToolChoiceKind discriminates the ways a turn may constrain which tools the
// model is allowed to call.
type ToolChoiceKind int

const (
	// ToolChoiceAuto lets the model call zero, one, or multiple tools freely.
	ToolChoiceAuto ToolChoiceKind = iota
	// ToolChoiceNone forbids any tool call, even if tools are available.
	ToolChoiceNone
	// ToolChoiceRequired forces the model to call at least one tool.
	ToolChoiceRequired
	// ToolChoiceFunction requires calling exactly the named tool.
	ToolChoiceFunction
)

// ToolChoice is a wire-agnostic tool-choice constraint for one ChatStream
// call; each provider translates it to its own request shape.
type ToolChoice struct {
	Kind     ToolChoiceKind
	Function string // populated only when Kind == ToolChoiceFunction
}

type Model struct {
	Name       string
	Size       int64
	Digest     string
	ModifiedAt time.Time
	Format     string
	Family     string
	ParamSize  string
	QuantLevel string
}

// ReasoningSupportKind discriminates the ways a model exposes reasoning
// (thinking) configuration.
type ReasoningSupportKind int

const (
	// ReasoningUnsupported means the model has no reasoning configuration at all.
	ReasoningUnsupported ReasoningSupportKind = iota
	// ReasoningBudgetted means reasoning is tuned by a minimum/maximum token budget.
	ReasoningBudgetted
	// ReasoningLeveled means reasoning is tuned by a discrete effort level
	// (low/medium/high/xhigh) rather than a token count.
	ReasoningLeveled
)

// ReasoningSupport describes how a model's reasoning effort can be
// configured, mirrored from the teacher's ReasoningDetails enum.
type ReasoningSupport struct {
	Kind ReasoningSupportKind

	// Populated only when Kind == ReasoningBudgetted.
	MinTokens int
	MaxTokens *int // nil means unbounded

	// Populated only when Kind == ReasoningLeveled.
	Low, Medium, High, XHigh bool
}

// ModelDeprecationStatus discriminates whether a model is still active.
type ModelDeprecationStatus int

const (
	// ModelActive means the model is available for use with no retirement planned.
	ModelActive ModelDeprecationStatus = iota
	// ModelDeprecated means the model is scheduled for or past retirement.
	ModelDeprecated
)

// ModelDeprecation carries a model's deprecation status and, when
// deprecated, any retirement details the provider publishes.
type ModelDeprecation struct {
	Status   ModelDeprecationStatus
	Note     string
	RetireAt *time.Time
}

// ModelDetails describes one model's capabilities, as returned by
// Provider.ModelDetails. Fields the provider doesn't publish are left at
// their zero value (0 for the token counts, nil for Reasoning).
type ModelDetails struct {
	ID              string
	DisplayName     string
	ContextWindow   int
	MaxOutputTokens int
	Reasoning       *ReasoningSupport // nil means reasoning support is unknown
	KnowledgeCutoff *time.Time
	Deprecated      ModelDeprecation
	Features        []string
}

// Provider defines the interface for LLM providers.
type Provider interface {
	// Name returns the provider's identifier.
	Name() string

	// ChatStream sends messages with optional tools and returns a channel of streaming events.
	// The channel is closed after EventDone or EventError is sent.
	// Pass nil tools for simple chat without tool calling.
	ChatStream(ctx context.Context, messages []Message, tools []Tool, choice ToolChoice) (<-chan StreamEvent, error)

	// ListModels returns available models from the provider.
	ListModels(ctx context.Context) ([]Model, error)

	// ModelDetails returns capability details for one named model. Returns
	// ErrModelNotFound if name isn't among ListModels' results.
	ModelDetails(ctx context.Context, name string) (ModelDetails, error)

	// Close closes idle HTTP connections and cleans up resources.
	Close() error
}

type Factory interface {
	Name() string
	Create(model string, opts Options) Provider
}

// Registry holds available providers.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

func (r *Registry) RegisterFactory(name string, f Factory) {
	r.factories[name] = f
}

func (r *Registry) Create(name, model string, opts Options) (Provider, error) {
	f, ok := r.factories[name]
	if !ok {
		log.Error().Str("name", name).Str("model", model).Msg("Registry.Create: factory not found")
		return nil, ErrProviderNotFound
	}
	log.Info().Str("name", name).Str("model", model).Str("factory_type", "unknown").Msg("Registry.Create: calling factory")
	return f.Create(model, opts), nil
}

// Options holds provider generation settings.
type Options struct {
	Temperature   float64
	TopP          float64
	RepeatPenalty float64
	MaxTokens     int
}

// List returns all registered provider names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// TaggedModel pairs a provider config name with a model.
type TaggedModel struct {
	ProviderName string
	Model        Model
}

// ListAllModels concurrently fetches models from every registered provider and
// returns the combined list. Errors from individual providers are logged and
// skipped so a single unavailable provider does not block the rest.
func (r *Registry) ListAllModels(ctx context.Context, opts Options) []TaggedModel {
	type result struct {
		name   string
		models []Model
	}
	ch := make(chan result, len(r.factories))
	for name := range r.factories {
		name := name
		go func() {
			prov := r.factories[name].Create("", opts)
			models, err := prov.ListModels(ctx)
			prov.Close()
			if err != nil {
				log.Warn().Str("provider", name).Err(err).Msg("ListAllModels: provider error")
				ch <- result{name: name}
				return
			}
			ch <- result{name: name, models: models}
		}()
	}
	var all []TaggedModel
	for range r.factories {
		res := <-ch
		for _, m := range res.models {
			all = append(all, TaggedModel{ProviderName: res.name, Model: m})
		}
	}
	return all
}
