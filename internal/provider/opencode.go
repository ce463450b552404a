package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// OpenCode Zen fronts several upstream model families behind one base URL,
// each expecting a different request/response shape. opencodeEndpointForModel
// picks the shape; ChatStream builds and parses the matching wire format
// using the same request builders and SSE parsers the chat-completions,
// Responses, and Anthropic Messages providers use elsewhere in this package.
const (
	opencodeChatCompletionsEndpoint = "/chat/completions"
	opencodeMessagesEndpoint        = "/messages"
	opencodeResponsesEndpoint       = "/responses"
)

var opencodeModelEndpoints = map[string]string{
	"minimax-m2.1-free": opencodeMessagesEndpoint,
}

func opencodeEndpointForModel(model string) string {
	if endpoint, ok := opencodeModelEndpoints[model]; ok {
		return endpoint
	}
	switch {
	case strings.HasPrefix(model, "gpt-"):
		return opencodeResponsesEndpoint
	case strings.HasPrefix(model, "claude-"):
		return opencodeMessagesEndpoint
	default:
		return opencodeChatCompletionsEndpoint
	}
}

// OpenCodeProvider implements the Provider interface for OpenCode Zen.
type OpenCodeProvider struct {
	name        string
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	model       string
	temperature float64
}

// NewOpenCode creates a new OpenCode Zen provider.
func NewOpenCode(endpoint, model, apiKey string) *OpenCodeProvider {
	return NewOpenCodeWithTemp("opencode_zen", endpoint, model, apiKey, 0.7)
}

func NewOpenCodeWithTemp(name string, endpoint, model, apiKey string, temperature float64) *OpenCodeProvider {
	return &OpenCodeProvider{
		name:        name,
		baseURL:     strings.TrimRight(endpoint, "/"),
		apiKey:      apiKey,
		httpClient:  &http.Client{},
		model:       model,
		temperature: temperature,
	}
}

func (p *OpenCodeProvider) Name() string { return p.name }

func (p *OpenCodeProvider) ChatStream(ctx context.Context, messages []Message, tools []Tool, choice ToolChoice) (<-chan StreamEvent, error) {
	endpoint := opencodeEndpointForModel(p.model)

	body, err := p.buildRequestBody(endpoint, messages, tools, choice)
	if err != nil {
		return nil, err
	}

	reader, err := httpDoSSE(ctx, httpRequestConfig{
		client:   p.httpClient,
		url:      p.baseURL + endpoint,
		body:     body,
		headers:  p.authHeaders(),
		provider: p.name,
		model:    p.model,
	})
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamEvent)
	go func() {
		defer close(ch)
		defer reader.Close()
		switch endpoint {
		case opencodeResponsesEndpoint:
			parseResponsesSSEStream(ctx, reader, ch)
		case opencodeMessagesEndpoint:
			parseAnthropicSSEStream(ctx, reader, ch)
		default:
			parseSSEStream(ctx, reader, ch)
		}
	}()

	return ch, nil
}

func (p *OpenCodeProvider) buildRequestBody(endpoint string, messages []Message, tools []Tool, choice ToolChoice) ([]byte, error) {
	switch endpoint {
	case opencodeResponsesEndpoint:
		temp := float32(p.temperature)
		req := responsesRequest{
			Model:       p.model,
			Input:       toResponsesInput(messages),
			Tools:       toResponsesTools(tools),
			ToolChoice:  toOpenAIToolChoice(choice, len(tools)),
			Temperature: &temp,
			Stream:      true,
		}
		return json.Marshal(req)

	case opencodeMessagesEndpoint:
		system, rest := toAnthropicMessages(messages)
		req := anthropicRequest{
			Model:       p.model,
			Messages:    rest,
			System:      system,
			MaxTokens:   16000,
			Temperature: p.temperature,
			Stream:      true,
			Tools:       toAnthropicTools(tools),
			ToolChoice:  toAnthropicToolChoice(choice, len(tools)),
		}
		return json.Marshal(req)

	default:
		req := struct {
			Model         string                     `json:"model"`
			Messages      []chatCompletionReqMessage `json:"messages"`
			Tools         []chatCompletionReqTool    `json:"tools,omitempty"`
			ToolChoice    any                        `json:"tool_choice,omitempty"`
			Temperature   float32                    `json:"temperature,omitempty"`
			Stream        bool                       `json:"stream"`
			StreamOptions *chatStreamOptions         `json:"stream_options,omitempty"`
		}{
			Model:         p.model,
			Messages:      toChatCompletionMessages(messages),
			Tools:         toChatCompletionReqTools(tools),
			ToolChoice:    toOpenAIToolChoice(choice, len(tools)),
			Temperature:   float32(p.temperature),
			Stream:        true,
			StreamOptions: &chatStreamOptions{IncludeUsage: true},
		}
		return json.Marshal(req)
	}
}

func (p *OpenCodeProvider) authHeaders() map[string]string {
	headers := make(map[string]string)
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}
	return headers
}

// ListModels queries OpenCode Zen's OpenAI-compatible /models listing.
func (p *OpenCodeProvider) ListModels(ctx context.Context) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	for k, v := range p.authHeaders() {
		req.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("opencode: list models status %d", resp.StatusCode)
	}

	var listResp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, err
	}

	models := make([]Model, len(listResp.Data))
	for i, m := range listResp.Data {
		models[i] = Model{Name: m.ID}
	}
	return models, nil
}

// ModelDetails returns capability details for an OpenCode Zen model. The
// /models listing carries only an id, so only reasoning support is inferred,
// from the same per-model endpoint routing ChatStream uses: Responses-routed
// models (gpt-*) expose OpenAI's low/medium/high effort levels, Messages-routed
// models (claude-*) expose Anthropic's token-budgeted thinking, and everything
// else is left unknown since the plain chat-completions shape has no
// reasoning knob of its own.
func (p *OpenCodeProvider) ModelDetails(ctx context.Context, name string) (ModelDetails, error) {
	models, err := p.ListModels(ctx)
	if err != nil {
		return ModelDetails{}, err
	}
	for _, m := range models {
		if m.Name == name {
			details := ModelDetails{ID: m.Name, DisplayName: m.Name}
			switch opencodeEndpointForModel(m.Name) {
			case opencodeResponsesEndpoint:
				details.Reasoning = &ReasoningSupport{Kind: ReasoningLeveled, Low: true, Medium: true, High: true}
			case opencodeMessagesEndpoint:
				details.Reasoning = &ReasoningSupport{Kind: ReasoningBudgetted, MinTokens: 1024}
			}
			return details, nil
		}
	}
	return ModelDetails{}, ErrModelNotFound
}

func (p *OpenCodeProvider) Close() error {
	if p.httpClient != nil {
		p.httpClient.CloseIdleConnections()
	}
	return nil
}

// chatCompletionReqMessage/Tool are the plain OpenAI chat-completions wire
// shapes used for OpenCode Zen models that proxy straight to that endpoint,
// built without the go-openai SDK types so arguments stay raw JSON.
type chatCompletionReqMessage struct {
	Role       string                      `json:"role"`
	Content    string                      `json:"content"`
	ToolCallID string                      `json:"tool_call_id,omitempty"`
	ToolCalls  []chatCompletionReqToolCall `json:"tool_calls,omitempty"`
}

type chatCompletionReqToolCall struct {
	ID       string                  `json:"id"`
	Type     string                  `json:"type"`
	Function chatCompletionReqFunCal `json:"function"`
}

type chatCompletionReqFunCal struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatCompletionReqTool struct {
	Type     string                     `json:"type"`
	Function chatCompletionReqFunction  `json:"function"`
}

type chatCompletionReqFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

func toChatCompletionMessages(messages []Message) []chatCompletionReqMessage {
	result := make([]chatCompletionReqMessage, len(messages))
	for i, m := range messages {
		msg := chatCompletionReqMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		if len(m.ToolCalls) > 0 {
			msg.ToolCalls = make([]chatCompletionReqToolCall, len(m.ToolCalls))
			for j, tc := range m.ToolCalls {
				msg.ToolCalls[j] = chatCompletionReqToolCall{
					ID: tc.ID, Type: "function",
					Function: chatCompletionReqFunCal{Name: tc.Name, Arguments: string(tc.Arguments)},
				}
			}
		}
		result[i] = msg
	}
	return result
}

func toChatCompletionReqTools(tools []Tool) []chatCompletionReqTool {
	if len(tools) == 0 {
		return nil
	}
	emptyParams := json.RawMessage(`{"type":"object","properties":{}}`)
	result := make([]chatCompletionReqTool, len(tools))
	for i, t := range tools {
		params := t.Parameters
		if len(params) == 0 {
			params = emptyParams
		}
		result[i] = chatCompletionReqTool{
			Type:     "function",
			Function: chatCompletionReqFunction{Name: t.Name, Description: t.Description, Parameters: params},
		}
	}
	return result
}
