package tool

import (
	"context"

	"github.com/xonecas/jpcore/internal/convo"
)

// Inquirer puts a question to whoever is driving the conversation (the CLI
// frontend, a test harness, a pre-supplied answer map) and returns the
// answer. Implementations may block; the coordinator always calls Ask with
// the turn's context so a cancellation reaches a pending prompt.
type Inquirer interface {
	Ask(ctx context.Context, draft InquiryDraft) (any, error)
}

// StaticAnswers is an Inquirer backed by a fixed map of pre-supplied
// answers, keyed by question text. Useful for non-interactive runs and
// tests; returns convo's "inquiry unanswerable" behavior (a text default,
// or the draft's Default) when no entry matches.
type StaticAnswers map[string]any

// Ask returns the pre-supplied answer for draft.QuestionText, falling back
// to draft.Default.
func (a StaticAnswers) Ask(_ context.Context, draft InquiryDraft) (any, error) {
	if v, ok := a[draft.QuestionText]; ok {
		return v, nil
	}
	return draft.Default, nil
}

// askBool is a small convenience wrapper used by the approval workflow:
// builds a boolean-answer InquiryDraft, asks it, and coerces the answer.
func askBool(ctx context.Context, inquirer Inquirer, question string, def bool) (bool, error) {
	answer, err := inquirer.Ask(ctx, InquiryDraft{
		QuestionText: question,
		AnswerKind:   convo.InquiryAnswerBoolean,
		Default:      def,
	})
	if err != nil {
		return false, err
	}
	b, ok := answer.(bool)
	if !ok {
		return def, nil
	}
	return b, nil
}

// askText is the edit-mode convenience wrapper: builds a text-answer
// InquiryDraft pre-filled with current, asks it, and returns the (possibly
// unchanged) text.
func askText(ctx context.Context, inquirer Inquirer, question, current string) (string, error) {
	answer, err := inquirer.Ask(ctx, InquiryDraft{
		QuestionText: question,
		AnswerKind:   convo.InquiryAnswerText,
		Default:      current,
	})
	if err != nil {
		return current, err
	}
	s, ok := answer.(string)
	if !ok {
		return current, nil
	}
	return s, nil
}
