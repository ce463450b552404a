package llm

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// EventAggregator buffers Part values keyed by index and merges same-kind,
// same-index parts, emitting Part+Flush pairs once an index is flushed or
// the stream finishes. Mirrors the merge rules of the Rust predecessor's
// stream chunk aggregator: a kind mismatch at the same index forces the
// buffered event out before the incoming one takes its place.
type EventAggregator struct {
	mu      sync.Mutex
	pending map[int]ConversationEvent
	order   []int // insertion order of currently-pending indices
}

// NewEventAggregator constructs an empty aggregator.
func NewEventAggregator() *EventAggregator {
	return &EventAggregator{pending: make(map[int]ConversationEvent)}
}

// Ingest consumes one upstream occurrence (a Part, Flush, or Finished) and
// returns zero or more normalized events ready for the caller to emit.
func (a *EventAggregator) Ingest(in Event) []Event {
	switch in.Type {
	case EventPart:
		return a.ingestPart(in.Index, in.Event)
	case EventFlush:
		return a.ingestFlush(in.Index, in.FlushMetadata)
	case EventFinished:
		return a.ingestFinished(in.EndReason)
	default:
		return nil
	}
}

func (a *EventAggregator) ingestPart(index int, incoming ConversationEvent) []Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, ok := a.pending[index]
	if !ok {
		a.pending[index] = incoming
		a.order = append(a.order, index)
		return nil
	}

	merged, err := tryMergeEvents(existing, incoming)
	if err == nil {
		a.pending[index] = merged
		return nil
	}

	// Kind mismatch: flush the buffered event, then buffer the incoming one
	// fresh at the same index.
	out := []Event{PartEvent(index, existing), FlushEvent(index, nil)}
	a.pending[index] = incoming
	return out
}

func (a *EventAggregator) ingestFlush(index int, metadata map[string]any) []Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, ok := a.pending[index]
	if !ok {
		if len(metadata) > 0 {
			log.Warn().Int("index", index).Msg("llm: flush metadata for empty aggregator index discarded")
		}
		return nil
	}

	delete(a.pending, index)
	a.removeOrder(index)

	existing.Metadata = mergeMetadata(existing.Metadata, metadata)
	return []Event{PartEvent(index, existing), FlushEvent(index, metadata)}
}

func (a *EventAggregator) ingestFinished(reason StreamEndReason) []Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	indices := append([]int(nil), a.order...)
	sort.Ints(indices)

	var out []Event
	for _, idx := range indices {
		ev, ok := a.pending[idx]
		if !ok {
			continue
		}
		out = append(out, PartEvent(idx, ev), FlushEvent(idx, nil))
	}
	a.pending = make(map[int]ConversationEvent)
	a.order = nil

	out = append(out, FinishedEvent(reason))
	return out
}

// AttachMetadata merges metadata into every event currently buffered in the
// aggregator. Used for provider signals that carry no index of their own
// (token usage, in particular): the metadata is merged into every pending
// part; when no part is pending, it is discarded.
func (a *EventAggregator) AttachMetadata(metadata map[string]any) {
	if len(metadata) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for idx, ev := range a.pending {
		ev.Metadata = mergeMetadata(ev.Metadata, metadata)
		a.pending[idx] = ev
	}
}

func (a *EventAggregator) removeOrder(index int) {
	for i, v := range a.order {
		if v == index {
			a.order = append(a.order[:i], a.order[i+1:]...)
			return
		}
	}
}

func mergeMetadata(existing, incoming map[string]any) map[string]any {
	if len(incoming) == 0 {
		return existing
	}
	out := make(map[string]any, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

// tryMergeEvents merges two ConversationEvents of matching kind, following
// the per-kind merge rules. It returns an error if the kinds differ, in
// which case the caller must flush the existing event and replace it.
func tryMergeEvents(existing, incoming ConversationEvent) (ConversationEvent, error) {
	if !existing.sameKind(incoming) {
		return ConversationEvent{}, errKindMismatch
	}

	switch existing.Kind {
	case KindMessage:
		existing.Text += incoming.Text
		return existing, nil
	case KindReasoning:
		existing.Text += incoming.Text
		existing.Metadata = mergeMetadata(existing.Metadata, incoming.Metadata)
		return existing, nil
	case KindToolCallRequest:
		return mergeToolCalls(existing, incoming), nil
	default:
		return ConversationEvent{}, errKindMismatch
	}
}

func mergeToolCalls(existing, incoming ConversationEvent) ConversationEvent {
	if existing.ToolCallID == "" {
		existing.ToolCallID = incoming.ToolCallID
	}
	if existing.ToolCallName == "" {
		existing.ToolCallName = incoming.ToolCallName
	}
	if len(incoming.ToolCallArguments) > 0 {
		if existing.ToolCallArguments == nil {
			existing.ToolCallArguments = make(map[string]any, len(incoming.ToolCallArguments))
		}
		for k, v := range incoming.ToolCallArguments {
			if existingStr, ok1 := existing.ToolCallArguments[k].(string); ok1 {
				if incomingStr, ok2 := v.(string); ok2 {
					existing.ToolCallArguments[k] = existingStr + incomingStr
					continue
				}
			}
			existing.ToolCallArguments[k] = v
		}
	}
	return existing
}
