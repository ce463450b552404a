package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xonecas/jpcore/internal/convo"
	"github.com/xonecas/jpcore/internal/llm"
	"github.com/xonecas/jpcore/internal/provider"
	"github.com/xonecas/jpcore/internal/tool"
)

// session bundles the wiring one interactive run needs to drive turns: the
// conversation being appended to, the pipeline driving the configured
// provider, the tool coordinator, and the provider-facing tool schema.
type session struct {
	store       *convo.Store
	convID      string
	pipeline    *llm.Pipeline
	coordinator *tool.Coordinator
	tools       []provider.Tool
	toolChoice  provider.ToolChoice
}

// run reads a line from stdin, persists it as a ChatRequest, drives the
// conversation to its next stable point (no pending tool calls), and loops.
func (s *session) run(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("jp ready. Type a message, or /exit to quit.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/exit" || line == "/quit" {
			return nil
		}

		if err := s.store.Append(s.convID, convo.NewChatRequest(line, nil)); err != nil {
			return fmt.Errorf("jp: append chat request: %w", err)
		}

		if err := s.turn(ctx); err != nil {
			fmt.Printf("error: %v\n", err)
			log.Error().Err(err).Msg("jp: turn failed")
		}
	}
}

// turn runs the pipeline against the conversation's full history, persists
// and prints each resulting event, dispatches any tool call requests
// through the coordinator, and re-runs the pipeline with the tool results
// appended until a turn produces no further tool calls.
func (s *session) turn(ctx context.Context) error {
	for {
		events, err := s.store.GetEvents(s.convID)
		if err != nil {
			return err
		}

		out, err := s.pipeline.Run(ctx, buildMessages(events), s.tools, s.toolChoice)
		if err != nil {
			return err
		}

		var toolRequests []convo.Event
		for _, ev := range out {
			if ev.Type != llm.EventPart {
				continue
			}
			converted, err := toConvoEvent(ev.Event)
			if err != nil {
				return err
			}
			if err := s.store.Append(s.convID, converted); err != nil {
				return err
			}
			printEvent(converted)
			if converted.Type == convo.KindToolCallRequest {
				toolRequests = append(toolRequests, converted)
			}
		}

		if len(toolRequests) == 0 {
			return nil
		}

		if _, err := s.coordinator.Dispatch(ctx, s.convID, toolRequests); err != nil {
			return err
		}
		for _, req := range toolRequests {
			fmt.Printf("[tool %s dispatched]\n", req.ToolCallName)
		}
	}
}

func printEvent(e convo.Event) {
	if e.Type == convo.KindChatResponse && e.ResponseKind == convo.ChatResponseMessage {
		fmt.Println(e.ResponseText)
	}
}
