package tool

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/xonecas/jpcore/internal/config"
	"github.com/xonecas/jpcore/internal/convo"
)

// Coordinator executes ToolCallRequest events and appends the corresponding
// ToolCallResponse (and any InquiryRequest/InquiryResponse) events to the
// conversation store.
type Coordinator struct {
	Registry *Registry
	Store    *convo.Store
	Config   config.ToolConfig
	Inquirer Inquirer
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(registry *Registry, store *convo.Store, cfg config.ToolConfig, inquirer Inquirer) *Coordinator {
	return &Coordinator{Registry: registry, Store: store, Config: cfg, Inquirer: inquirer}
}

// Dispatch executes every request concurrently (an errgroup barrier: the
// caller does not get a result until every request has reached a terminal
// state), appends each resulting ToolCallResponse (plus any inquiry events
// raised along the way) to convID's event log, and returns the responses in
// the same order as requests.
func (c *Coordinator) Dispatch(ctx context.Context, convID string, requests []convo.Event) ([]convo.Event, error) {
	responses := make([]convo.Event, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			resp := c.runOne(gctx, convID, req)
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, resp := range responses {
		if err := c.Store.Append(convID, resp); err != nil {
			return nil, fmt.Errorf("tool: append response: %w", err)
		}
	}
	return responses, nil
}

// runOne resolves, approves, executes, and result-approves a single tool
// call request, returning its terminal ToolCallResponse event. It never
// returns an error: every failure mode (unknown tool, declined approval,
// execution failure) is encoded as a ToolCallResponse with ok=false.
func (c *Coordinator) runOne(ctx context.Context, convID string, req convo.Event) convo.Event {
	name := req.ToolCallName

	t, ok := c.Registry.Resolve(ctx, name)
	if !ok {
		return convo.NewToolCallResponseErr(req.ToolCallID, fmt.Sprintf("unknown tool: %s", name))
	}

	if !c.approveRun(ctx, convID, name, req) {
		return convo.NewToolCallResponseErr(req.ToolCallID, fmt.Sprintf("tool call to %s declined", name))
	}

	arguments := req.Arguments
	if c.Config.RunFor(name) == config.ApprovalEdit {
		edited, err := c.editArguments(ctx, convID, name, arguments)
		if err != nil {
			return convo.NewToolCallResponseErr(req.ToolCallID, err.Error())
		}
		arguments = edited
	}

	outcome := c.executeWithInquiries(ctx, convID, t, arguments)

	switch outcome.Kind {
	case OutcomeError:
		if ctx.Err() != nil {
			log.Debug().Str("tool", name).Msg("tool: context canceled mid-execution")
		}
		return convo.NewToolCallResponseErr(req.ToolCallID, outcome.Message)
	case OutcomeSuccess:
		content, ok := c.approveResult(ctx, convID, name, outcome.Content)
		if !ok {
			return convo.NewToolCallResponseErr(req.ToolCallID, "result delivery declined by user")
		}
		return convo.NewToolCallResponseOK(req.ToolCallID, content)
	default:
		return convo.NewToolCallResponseErr(req.ToolCallID, "tool left in an unresolved state")
	}
}

// executeWithInquiries runs t, answering any NeedsInput outcomes and
// resuming the same invocation with the accumulated answers until it
// reaches a terminal (Success or Error) outcome.
func (c *Coordinator) executeWithInquiries(ctx context.Context, convID string, t Tool, arguments map[string]any) Outcome {
	answers := make(map[string]any)
	for {
		outcome := t.Execute(ctx, arguments, answers)
		if outcome.Kind != OutcomeNeedsInput {
			return outcome
		}

		id := uuid.NewString()
		_ = c.Store.Append(convID, convo.NewInquiryRequest(
			id, convo.InquirySourceTool, t.Name(),
			outcome.Question.QuestionText, outcome.Question.AnswerKind,
			outcome.Question.Options, outcome.Question.Default,
		))

		answer, err := c.Inquirer.Ask(ctx, outcome.Question)
		if err != nil {
			return Failure(fmt.Sprintf("inquiry failed: %v", err), "", true)
		}
		_ = c.Store.Append(convID, convo.NewInquiryResponse(id, answer))

		answers[id] = answer
	}
}

// approveRun implements the run ∈ {always, ask, edit} approval mode. edit is
// handled separately (editArguments); here it behaves like always, since the
// user approves by way of editing.
func (c *Coordinator) approveRun(ctx context.Context, convID, name string, req convo.Event) bool {
	mode := c.Config.RunFor(name)
	if mode != config.ApprovalAsk {
		return true
	}

	id := uuid.NewString()
	question := fmt.Sprintf("Run tool %s with arguments %v?", name, req.Arguments)
	_ = c.Store.Append(convID, convo.NewInquiryRequest(id, convo.InquirySourceTool, name, question, convo.InquiryAnswerBoolean, nil, true))

	ok, err := askBool(ctx, c.Inquirer, question, true)
	_ = c.Store.Append(convID, convo.NewInquiryResponse(id, ok))
	if err != nil {
		return false
	}
	return ok
}

// editArguments implements run == edit: presents the arguments as text for
// editing and reparses the result.
func (c *Coordinator) editArguments(ctx context.Context, convID, name string, arguments map[string]any) (map[string]any, error) {
	id := uuid.NewString()
	question := fmt.Sprintf("Edit arguments for %s before running:", name)
	_ = c.Store.Append(convID, convo.NewInquiryRequest(id, convo.InquirySourceTool, name, question, convo.InquiryAnswerText, nil, nil))

	edited, err := askText(ctx, c.Inquirer, question, renderArguments(arguments))
	_ = c.Store.Append(convID, convo.NewInquiryResponse(id, edited))
	if err != nil {
		return arguments, err
	}

	parsed, err := parseArguments(edited)
	if err != nil {
		return arguments, fmt.Errorf("tool: edited arguments for %s are invalid: %w", name, err)
	}
	return parsed, nil
}

// approveResult implements the result ∈ {always, ask, edit} approval mode.
func (c *Coordinator) approveResult(ctx context.Context, convID, name, content string) (string, bool) {
	mode := c.Config.ResultFor(name)
	switch mode {
	case config.ApprovalAlways:
		return content, true
	case config.ApprovalAsk:
		id := uuid.NewString()
		question := fmt.Sprintf("Deliver result from %s to the assistant?", name)
		_ = c.Store.Append(convID, convo.NewInquiryRequest(id, convo.InquirySourceTool, name, question, convo.InquiryAnswerBoolean, nil, true))
		ok, err := askBool(ctx, c.Inquirer, question, true)
		_ = c.Store.Append(convID, convo.NewInquiryResponse(id, ok))
		if err != nil || !ok {
			return content, false
		}
		return content, true
	case config.ApprovalEdit:
		id := uuid.NewString()
		question := fmt.Sprintf("Edit result from %s before delivering:", name)
		_ = c.Store.Append(convID, convo.NewInquiryRequest(id, convo.InquirySourceTool, name, question, convo.InquiryAnswerText, nil, nil))
		edited, err := askText(ctx, c.Inquirer, question, content)
		_ = c.Store.Append(convID, convo.NewInquiryResponse(id, edited))
		if err != nil {
			return content, true
		}
		return edited, true
	default:
		return content, true
	}
}
