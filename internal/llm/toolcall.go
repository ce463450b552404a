package llm

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// toolCallBuffer accumulates the raw wire-level deltas of a single tool call
// before it is finalized into a ConversationEvent.
type toolCallBuffer struct {
	id      string
	name    string
	argsBuf strings.Builder
}

// ToolCallRequestAggregator assembles per-stream-index tool call deltas
// (id, name, and JSON argument fragments arriving piecemeal) into finalized
// tool call requests. Grounded on the Rust predecessor's
// ToolCallRequestAggregator: first-non-empty id/name wins, argument
// fragments are concatenated as raw text and parsed only at Finalize.
type ToolCallRequestAggregator struct {
	mu      sync.Mutex
	pending map[int]*toolCallBuffer
}

// NewToolCallRequestAggregator constructs an empty aggregator.
func NewToolCallRequestAggregator() *ToolCallRequestAggregator {
	return &ToolCallRequestAggregator{pending: make(map[int]*toolCallBuffer)}
}

// AddChunk records one delta for the tool call at index. id and name may be
// empty (most deltas after the first carry none); partialJSON is appended to
// the running argument buffer verbatim.
func (a *ToolCallRequestAggregator) AddChunk(index int, id, name, partialJSON string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	buf, ok := a.pending[index]
	if !ok {
		buf = &toolCallBuffer{}
		a.pending[index] = buf
	}
	if buf.id == "" && id != "" {
		buf.id = id
	}
	if buf.name == "" && name != "" {
		buf.name = name
	}
	buf.argsBuf.WriteString(partialJSON)
}

// Finalize completes the tool call at index, parsing its argument buffer as
// a JSON object (an empty or whitespace-only buffer yields an empty object).
// The index is removed from the aggregator regardless of outcome.
func (a *ToolCallRequestAggregator) Finalize(index int) (ConversationEvent, error) {
	a.mu.Lock()
	buf, ok := a.pending[index]
	if ok {
		delete(a.pending, index)
	}
	a.mu.Unlock()

	if !ok {
		return ConversationEvent{}, newAggErr(index, reasonUnknownIndex)
	}
	if buf.id == "" {
		return ConversationEvent{}, newAggErr(index, reasonMissingID)
	}
	if buf.name == "" {
		return ConversationEvent{}, newAggErr(index, reasonMissingName)
	}

	raw := strings.TrimSpace(buf.argsBuf.String())
	args := make(map[string]any)
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			e := newAggErr(index, reasonInvalidJSON)
			e.Err = err
			return ConversationEvent{}, e
		}
	}

	return ConversationEvent{
		Kind:              KindToolCallRequest,
		ToolCallID:        buf.id,
		ToolCallName:      buf.name,
		ToolCallArguments: args,
	}, nil
}

// FinalizeAll finalizes every currently-pending index, in ascending order.
// Used when the upstream stream ends and every outstanding tool call must be
// resolved. A malformed tool call (missing id/name, or unparseable argument
// JSON) stops finalization and surfaces the *AggregationError rather than
// silently dropping the call; indices already finalized are still returned
// alongside the error.
func (a *ToolCallRequestAggregator) FinalizeAll() (map[int]ConversationEvent, error) {
	a.mu.Lock()
	indices := make([]int, 0, len(a.pending))
	for idx := range a.pending {
		indices = append(indices, idx)
	}
	a.mu.Unlock()
	sort.Ints(indices)

	out := make(map[int]ConversationEvent, len(indices))
	for _, idx := range indices {
		ev, err := a.Finalize(idx)
		if err != nil {
			return out, err
		}
		out[idx] = ev
	}
	return out, nil
}
