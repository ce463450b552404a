package convo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xonecas/jpcore/internal/id"
)

const rootIndexFileName = "conversations.json"

// rootIndex is the top-level conversations.json: the set of known
// conversations and which one is active. It is the only part of the store
// that must be read eagerly in full; everything else pages in on demand.
type rootIndex struct {
	ActiveConversationID string            `json:"active_conversation_id,omitempty"`
	Dirnames             map[string]string `json:"conversations"` // id -> directory name
}

// handle is a conversation's in-memory state. Metadata is loaded eagerly
// (listing needs titles and timestamps); the event log loads lazily,
// memoized on first access. New events are appended to the in-memory
// `events` slice immediately but only become durable at Sync/Close time:
// `flushed` tracks how many leading events have already been written to
// events.jsonl.
type handle struct {
	dir           string
	metadata      Metadata
	metadataDirty bool
	events        []Event
	eventsLoaded  bool
	flushed       int
}

// Store is the on-disk conversation store: one directory per conversation
// under root, a shared conversations.json tracking the active conversation,
// and an optional rebuildable secondary index for listing/search. Create,
// SetActive and Remove write to disk at once; appended events and context
// changes are held in memory until Sync or Close.
type Store struct {
	mu      sync.Mutex
	root    string
	index   rootIndex
	handles map[string]*handle
	search  *Index // nil if no secondary index was opened
}

// Open loads (or initializes) the store rooted at dir. Conversation event
// logs are not read yet; only conversations.json and each conversation's
// metadata.json are loaded, matching the store's eager-listing /
// lazy-content-loading contract.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("convo: create store root: %w", err)
	}
	s := &Store{root: dir, handles: make(map[string]*handle)}

	b, err := os.ReadFile(filepath.Join(dir, rootIndexFileName))
	switch {
	case os.IsNotExist(err):
		s.index = rootIndex{Dirnames: make(map[string]string)}
	case err != nil:
		return nil, fmt.Errorf("convo: read conversations.json: %w", err)
	default:
		if err := json.Unmarshal(b, &s.index); err != nil {
			return nil, fmt.Errorf("convo: decode conversations.json: %w", err)
		}
		if s.index.Dirnames == nil {
			s.index.Dirnames = make(map[string]string)
		}
	}

	for convID, dirname := range s.index.Dirnames {
		meta, err := readMetadata(filepath.Join(dir, dirname))
		if err != nil {
			log.Warn().Err(err).Str("conversation", convID).Msg("convo: skipping unreadable metadata")
			continue
		}
		s.handles[convID] = &handle{dir: filepath.Join(dir, dirname), metadata: meta}
	}
	return s, nil
}

// UseIndex attaches a rebuildable secondary search index to the store.
func (s *Store) UseIndex(idx *Index) { s.search = idx }

func (s *Store) persistIndex() error {
	b, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return fmt.Errorf("convo: encode conversations.json: %w", err)
	}
	return os.WriteFile(filepath.Join(s.root, rootIndexFileName), b, 0o644)
}

// Create starts a new conversation with the given title and makes it the
// active conversation. Its directory and metadata.json are written
// immediately (there is no event content yet to defer).
func (s *Store) Create(title string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(title)
}

func (s *Store) createLocked(title string) (*Conversation, error) {
	now := time.Now().UTC()
	convID := id.FormatTimeVariant(id.VariantConversation, now)
	// Ids have decisecond resolution, so a second conversation created within
	// the same 100ms would get the same id. Step the id's timestamp forward
	// until it is free; the active id is skipped too, because Remove calls
	// this after dropping the active conversation's handle.
	for idTime := now; ; {
		if _, taken := s.handles[convID]; !taken && convID != s.index.ActiveConversationID {
			break
		}
		idTime = idTime.Add(100 * time.Millisecond)
		convID = id.FormatTimeVariant(id.VariantConversation, idTime)
	}
	dirname := toDirname(convID, title)
	dir := filepath.Join(s.root, dirname)

	meta := Metadata{ID: convID, Title: title, CreatedAt: now, UpdatedAt: now}
	if err := writeMetadata(dir, meta); err != nil {
		return nil, err
	}

	s.handles[convID] = &handle{dir: dir, metadata: meta, eventsLoaded: true}
	s.index.Dirnames[convID] = dirname
	s.index.ActiveConversationID = convID
	if err := s.persistIndex(); err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.upsertConversation(convID, meta.Title, now, 0)
	}
	return &Conversation{Metadata: meta, Events: nil}, nil
}

// Append records a new event at the end of conversation convID's in-memory
// log and bumps its UpdatedAt. The write only becomes durable at the next
// Sync or Close, per the store's "writes deferred to shutdown" contract.
func (s *Store) Append(convID string, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handles[convID]
	if !ok {
		return fmt.Errorf("convo: unknown conversation %s", convID)
	}
	if !h.eventsLoaded {
		events, err := readEvents(h.dir)
		if err != nil {
			return err
		}
		h.events = events
		h.eventsLoaded = true
		h.flushed = len(events)
	}

	h.events = append(h.events, e)
	h.metadata.UpdatedAt = e.Timestamp
	h.metadataDirty = true

	if s.search != nil {
		s.search.upsertConversation(convID, h.metadata.Title, h.metadata.UpdatedAt, len(h.events))
		if text := searchableText(e); text != "" {
			s.search.indexMessage(convID, text, e.Timestamp)
		}
	}
	return nil
}

// GetEvents returns the full event log for convID, loading and memoizing it
// from disk on first access. Includes events appended since the last Sync.
func (s *Store) GetEvents(convID string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handles[convID]
	if !ok {
		return nil, fmt.Errorf("convo: unknown conversation %s", convID)
	}
	if !h.eventsLoaded {
		events, err := readEvents(h.dir)
		if err != nil {
			return nil, err
		}
		h.events = events
		h.eventsLoaded = true
		h.flushed = len(events)
	}
	out := make([]Event, len(h.events))
	copy(out, h.events)
	return out, nil
}

// GetMetadata returns the cheap, always-loaded summary for convID.
func (s *Store) GetMetadata(convID string) (Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[convID]
	if !ok {
		return Metadata{}, fmt.Errorf("convo: unknown conversation %s", convID)
	}
	return h.metadata, nil
}

// MutateContext applies fn to convID's context map. Like Append, this
// dirties the handle but is only written to metadata.json at the next Sync
// or Close.
func (s *Store) MutateContext(convID string, fn func(map[string]any)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[convID]
	if !ok {
		return fmt.Errorf("convo: unknown conversation %s", convID)
	}
	if h.metadata.Context == nil {
		h.metadata.Context = make(map[string]any)
	}
	fn(h.metadata.Context)
	h.metadata.UpdatedAt = time.Now().UTC()
	h.metadataDirty = true
	return nil
}

// List returns every known conversation's metadata, most recently updated
// first.
func (s *Store) List() []Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Metadata, 0, len(s.handles))
	for _, h := range s.handles {
		out = append(out, h.metadata)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

// ActiveID returns the id of the currently active conversation, or "" if
// none exists yet.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.ActiveConversationID
}

// SetActive marks convID as the active conversation.
func (s *Store) SetActive(convID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.handles[convID]; !ok {
		return fmt.Errorf("convo: unknown conversation %s", convID)
	}
	s.index.ActiveConversationID = convID
	return s.persistIndex()
}

// Remove deletes a conversation's directory; if it was the
// active conversation, re-elects the most recently updated remaining
// conversation as active, creating a fresh empty conversation if none remain.
func (s *Store) Remove(convID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handles[convID]
	if !ok {
		return fmt.Errorf("convo: unknown conversation %s", convID)
	}
	if err := os.RemoveAll(h.dir); err != nil {
		return fmt.Errorf("convo: remove conversation directory: %w", err)
	}
	delete(s.handles, convID)
	delete(s.index.Dirnames, convID)
	if s.search != nil {
		s.search.removeConversation(convID)
	}

	if s.index.ActiveConversationID != convID {
		return s.persistIndex()
	}

	if next := s.mostRecentlyUpdatedLocked(); next != "" {
		s.index.ActiveConversationID = next
		return s.persistIndex()
	}

	// No conversations remain; re-election has nothing to elect, so start a
	// fresh one and make it active. createLocked already persists the index.
	_, err := s.createLocked("")
	return err
}

func (s *Store) mostRecentlyUpdatedLocked() string {
	var bestID string
	var bestTime time.Time
	for convID, h := range s.handles {
		if h.metadata.UpdatedAt.After(bestTime) {
			bestTime = h.metadata.UpdatedAt
			bestID = convID
		}
	}
	return bestID
}

// Sync flushes every dirty conversation handle to disk: pending events are
// appended to events.jsonl and changed metadata is rewritten, as two
// separate writes per conversation (not one atomic step). Active provider streams hold their own config/event
// snapshots and are unaffected by when this runs.
func (s *Store) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncLocked()
}

func (s *Store) syncLocked() error {
	for convID, h := range s.handles {
		if h.flushed < len(h.events) {
			if err := appendEvents(h.dir, h.events[h.flushed:]); err != nil {
				return fmt.Errorf("convo: sync conversation %s: %w", convID, err)
			}
			h.flushed = len(h.events)
		}
		if h.metadataDirty {
			if err := writeMetadata(h.dir, h.metadata); err != nil {
				return fmt.Errorf("convo: sync conversation %s metadata: %w", convID, err)
			}
			h.metadataDirty = false
		}
	}
	return nil
}

// Close flushes all pending writes and releases the store. The Store value
// remains usable afterward (Sync is idempotent); Close exists for symmetry
// with callers that want an explicit "done with this store" point.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncLocked()
}

// searchableText extracts the human-readable text worth indexing for
// content search from an event, or "" if the event carries none.
func searchableText(e Event) string {
	switch e.Type {
	case KindChatRequest:
		return e.RequestContent
	case KindChatResponse:
		return e.ResponseText
	case KindInquiryRequest:
		return e.InquiryQuestionText
	default:
		return ""
	}
}
