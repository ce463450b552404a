package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// structuredToolName is the synthetic tool the pipeline forces a call to
// when issuing a StructuredQuery.
const structuredToolName = "emit_structured_output"

// Validator inspects a parsed structured-output payload and returns a
// human-readable error describing what is wrong, or nil if it passes.
type Validator func(payload json.RawMessage) error

// StructuredQuery bundles a target JSON schema with optional post-parse
// validators, implementing structured output by forcing a call to a
// synthetic tool whose parameters are the target schema.
type StructuredQuery struct {
	Schema     json.RawMessage
	Validators []Validator

	// MaxAttempts bounds the structured-output validator retry loop,
	// independent of the transport-level RetryConfig.
	MaxAttempts int
}

// compile compiles sq.Schema with jsonschema/v6 on every call; the result is
// not cached.
func (sq StructuredQuery) compile() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	var doc any
	if err := json.Unmarshal(sq.Schema, &doc); err != nil {
		return nil, fmt.Errorf("structured query: decode schema: %w", err)
	}
	const resourceName = "structured-output-schema.json"
	if err := compiler.AddResource(resourceName, doc); err != nil {
		return nil, fmt.Errorf("structured query: add schema resource: %w", err)
	}
	schema, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("structured query: compile schema: %w", err)
	}
	return schema, nil
}

// SyntheticTool renders the tool definition the pipeline forces a call to in
// order to coerce a chat completion into conforming to sq.Schema.
func (sq StructuredQuery) SyntheticTool() (name string, parameters json.RawMessage) {
	return structuredToolName, sq.Schema
}

// Validate compiles sq.Schema and runs it plus every registered Validator
// against payload, returning the first failure message it finds (schema
// errors first, then validators in order).
func (sq StructuredQuery) Validate(payload json.RawMessage) error {
	schema, err := sq.compile()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("structured query: decode payload: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return &ProviderError{Kind: ErrSchemaValidation, Cause: err}
	}

	for _, v := range sq.Validators {
		if v == nil {
			continue
		}
		if err := v(payload); err != nil {
			return &ProviderError{Kind: ErrSchemaValidation, Cause: err}
		}
	}
	return nil
}

// CompletionFunc issues one ordinary chat completion forced to call the
// structured synthetic tool (or, on ErrForceToolCallUnsupported, falls back to
// a textual instruction) and returns the raw tool-call arguments.
type CompletionFunc func(ctx context.Context, forceToolCall bool, validatorFeedback string) (json.RawMessage, error)

// ErrForceToolCallUnsupported signals that the underlying provider refused a
// forced tool call; RunStructuredQuery falls back to a textual-instruction
// completion exactly once before giving up, per the documented open-question
// decision (see DESIGN.md).
var ErrForceToolCallUnsupported = fmt.Errorf("provider does not support forced tool calls")

// RunStructuredQuery drives the structured-output request/validate loop:
// issue a forced-tool-call completion, validate the result, and on
// validation failure re-issue with the failure message echoed back as
// feedback, up to sq.MaxAttempts times.
func RunStructuredQuery(ctx context.Context, sq StructuredQuery, complete CompletionFunc) (json.RawMessage, error) {
	maxAttempts := sq.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	forceToolCall := true
	fellBack := false
	var feedback string

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		payload, err := complete(ctx, forceToolCall, feedback)
		if err != nil {
			if forceToolCall && !fellBack && err == ErrForceToolCallUnsupported {
				forceToolCall = false
				fellBack = true
				maxAttempts++ // the fallback itself doesn't count against the validator retry budget
				continue
			}
			return nil, err
		}

		if verr := sq.Validate(payload); verr != nil {
			feedback = verr.Error()
			continue
		}
		return payload, nil
	}

	return nil, fmt.Errorf("structured query: exceeded %d attempts, last feedback: %s", maxAttempts, feedback)
}
