package tool

import (
	"context"
	"testing"

	"github.com/xonecas/jpcore/internal/config"
	"github.com/xonecas/jpcore/internal/convo"
)

type echoTool struct {
	name string
}

func (e *echoTool) Name() string { return e.name }

func (e *echoTool) Execute(_ context.Context, arguments map[string]any, _ map[string]any) Outcome {
	v, _ := arguments["msg"].(string)
	return Success("echo:" + v)
}

type failingTool struct{}

func (f *failingTool) Name() string { return "fails" }

func (f *failingTool) Execute(_ context.Context, _ map[string]any, _ map[string]any) Outcome {
	return Failure("boom", "", false)
}

type askingTool struct {
	answered bool
}

func (a *askingTool) Name() string { return "asks" }

func (a *askingTool) Execute(_ context.Context, _ map[string]any, answers map[string]any) Outcome {
	for _, v := range answers {
		if s, ok := v.(string); ok && s != "" {
			return Success("got:" + s)
		}
	}
	return NeedsInput(InquiryDraft{QuestionText: "what is it?", AnswerKind: convo.InquiryAnswerText, Default: ""})
}

func newTestCoordinator(t *testing.T, cfg config.ToolConfig, inquirer Inquirer) (*Coordinator, string) {
	t.Helper()
	store, err := convo.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	conv, err := store.Create("test")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	reg := NewRegistry(nil)
	reg.RegisterBuiltin(&echoTool{name: "echo"})
	reg.RegisterBuiltin(&failingTool{})
	reg.RegisterBuiltin(&askingTool{})

	return NewCoordinator(reg, store, cfg, inquirer), conv.Metadata.ID
}

func TestDispatchSuccessWithDefaultApproval(t *testing.T) {
	cfg := config.ToolConfig{}
	c, convID := newTestCoordinator(t, cfg, StaticAnswers{})

	req := convo.NewToolCallRequest("call-1", "echo", map[string]any{"msg": "hi"})
	responses, err := c.Dispatch(context.Background(), convID, []convo.Event{req})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	if !responses[0].ToolResponseOK {
		t.Fatalf("expected ok response, got %+v", responses[0])
	}
	if responses[0].ToolResponseContent != "echo:hi" {
		t.Fatalf("unexpected content: %q", responses[0].ToolResponseContent)
	}
}

func TestDispatchUnknownToolReturnsError(t *testing.T) {
	cfg := config.ToolConfig{}
	c, convID := newTestCoordinator(t, cfg, StaticAnswers{})

	req := convo.NewToolCallRequest("call-2", "nonexistent", nil)
	responses, err := c.Dispatch(context.Background(), convID, []convo.Event{req})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if responses[0].ToolResponseOK {
		t.Fatalf("expected error response for unknown tool")
	}
}

func TestDispatchToolFailure(t *testing.T) {
	cfg := config.ToolConfig{}
	c, convID := newTestCoordinator(t, cfg, StaticAnswers{})

	req := convo.NewToolCallRequest("call-3", "fails", nil)
	responses, err := c.Dispatch(context.Background(), convID, []convo.Event{req})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if responses[0].ToolResponseOK {
		t.Fatalf("expected error response from failing tool")
	}
	if responses[0].ToolResponseContent != "boom" {
		t.Fatalf("unexpected message: %q", responses[0].ToolResponseContent)
	}
}

func TestDispatchResolvesInquiries(t *testing.T) {
	cfg := config.ToolConfig{}
	c, convID := newTestCoordinator(t, cfg, StaticAnswers{"what is it?": "resolved"})

	req := convo.NewToolCallRequest("call-4", "asks", nil)
	responses, err := c.Dispatch(context.Background(), convID, []convo.Event{req})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !responses[0].ToolResponseOK {
		t.Fatalf("expected ok response, got %+v", responses[0])
	}
	if responses[0].ToolResponseContent != "got:resolved" {
		t.Fatalf("unexpected content: %q", responses[0].ToolResponseContent)
	}
}

func TestDispatchDeclinedRunApproval(t *testing.T) {
	cfg := config.ToolConfig{Approvals: map[string]config.ToolApprovalConfig{"echo": {Run: config.ApprovalAsk}}}
	c, convID := newTestCoordinator(t, cfg, StaticAnswers{
		"Run tool echo with arguments map[msg:hi]?": false,
	})

	req := convo.NewToolCallRequest("call-5", "echo", map[string]any{"msg": "hi"})
	responses, err := c.Dispatch(context.Background(), convID, []convo.Event{req})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if responses[0].ToolResponseOK {
		t.Fatalf("expected declined tool call to produce an error response")
	}
}

func TestDispatchConcurrentCallsAllComplete(t *testing.T) {
	cfg := config.ToolConfig{}
	c, convID := newTestCoordinator(t, cfg, StaticAnswers{})

	reqs := []convo.Event{
		convo.NewToolCallRequest("a", "echo", map[string]any{"msg": "1"}),
		convo.NewToolCallRequest("b", "echo", map[string]any{"msg": "2"}),
		convo.NewToolCallRequest("c", "fails", nil),
	}
	responses, err := c.Dispatch(context.Background(), convID, reqs)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(responses) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(responses))
	}
	if responses[0].ToolCallID != "a" || responses[1].ToolCallID != "b" || responses[2].ToolCallID != "c" {
		t.Fatalf("responses out of order: %+v", responses)
	}
}
