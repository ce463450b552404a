package convo

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // register sqlite driver
)

// indexSchema mirrors the shape of the web-fetch cache this store's
// predecessor used, repurposed from URL/query caching to conversation
// listing and keyword search over message bodies.
const indexSchema = `
CREATE TABLE IF NOT EXISTS conversations (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	updated        INTEGER NOT NULL,
	message_count  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	conversation_id TEXT NOT NULL,
	text            TEXT NOT NULL,
	created         INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);
`

// Index is a rebuildable SQLite-backed secondary index over the store's
// conversations: a quick-to-query summary table plus a decoded, searchable
// copy of message text. It is never the source of truth — the event logs
// are — and can be deleted and rebuilt from them at any time by replaying
// Store.List and Store.GetEvents through upsertConversation/indexMessage.
type Index struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenIndex creates or opens the secondary index database at path.
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("convo: open index db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("convo: pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(indexSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("convo: create index schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close closes the index database.
func (x *Index) Close() error {
	if x == nil {
		return nil
	}
	return x.db.Close()
}

// Rebuild truncates and repopulates the index from the store's current
// state, the escape hatch for "the index and the logs disagree."
func (x *Index) Rebuild(s *Store) error {
	x.mu.Lock()
	if _, err := x.db.Exec("DELETE FROM conversations"); err != nil {
		x.mu.Unlock()
		return fmt.Errorf("convo: clear index: %w", err)
	}
	if _, err := x.db.Exec("DELETE FROM messages"); err != nil {
		x.mu.Unlock()
		return fmt.Errorf("convo: clear index: %w", err)
	}
	x.mu.Unlock()

	for _, meta := range s.List() {
		events, err := s.GetEvents(meta.ID)
		if err != nil {
			log.Warn().Err(err).Str("conversation", meta.ID).Msg("convo: rebuild index: skipping unreadable log")
			continue
		}
		x.upsertConversation(meta.ID, meta.Title, meta.UpdatedAt, len(events))
		for _, e := range events {
			if text := searchableText(e); text != "" {
				x.indexMessage(meta.ID, text, e.Timestamp)
			}
		}
	}
	return nil
}

func (x *Index) upsertConversation(id, title string, updated time.Time, messageCount int) {
	if x == nil {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	_, err := x.db.Exec(
		"INSERT OR REPLACE INTO conversations (id, title, updated, message_count) VALUES (?, ?, ?, ?)",
		id, title, updated.Unix(), messageCount,
	)
	if err != nil {
		log.Warn().Err(err).Str("conversation", id).Msg("convo: failed to index conversation summary")
	}
}

func (x *Index) indexMessage(conversationID, text string, created time.Time) {
	if x == nil {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	_, err := x.db.Exec(
		"INSERT INTO messages (conversation_id, text, created) VALUES (?, ?, ?)",
		conversationID, text, created.Unix(),
	)
	if err != nil {
		log.Warn().Err(err).Str("conversation", conversationID).Msg("convo: failed to index message")
	}
}

func (x *Index) removeConversation(id string) {
	if x == nil {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.db.Exec("DELETE FROM conversations WHERE id = ?", id)     //nolint:errcheck // best-effort cleanup of a rebuildable index
	x.db.Exec("DELETE FROM messages WHERE conversation_id = ?", id) //nolint:errcheck // same
}

// SearchResult is one hit from Search: a conversation whose message bodies
// overlap enough with the query's keywords.
type SearchResult struct {
	ConversationID string
	Title          string
	Score          float64
}

// Search finds conversations whose indexed message text overlaps with the
// query's keywords, scored by fraction of keywords matched. Requires at
// least two meaningful keywords in the query to avoid single common-word
// queries matching nearly everything.
func (x *Index) Search(query string) ([]SearchResult, error) {
	if x == nil {
		return nil, nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	queryKw := tokenize(query)
	if len(queryKw) < 2 {
		return nil, nil
	}

	rows, err := x.db.Query(`
		SELECT c.id, c.title, m.text
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id`)
	if err != nil {
		return nil, fmt.Errorf("convo: search index: %w", err)
	}
	defer rows.Close()

	best := make(map[string]SearchResult)
	for rows.Next() {
		var convID, title, text string
		if err := rows.Scan(&convID, &title, &text); err != nil {
			continue
		}
		score, hits := contentOverlap(queryKw, strings.ToLower(text))
		if hits < 2 {
			continue
		}
		if existing, ok := best[convID]; !ok || score > existing.Score {
			best[convID] = SearchResult{ConversationID: convID, Title: title, Score: score}
		}
	}

	out := make([]SearchResult, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	return out, rows.Err()
}

// stopWords are common words filtered out during tokenization.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "shall": true, "can": true,
	"for": true, "and": true, "but": true, "or": true, "nor": true,
	"not": true, "so": true, "yet": true, "to": true, "of": true,
	"in": true, "on": true, "at": true, "by": true, "with": true,
	"from": true, "as": true, "into": true, "about": true, "between": true,
	"through": true, "during": true, "before": true, "after": true,
	"this": true, "that": true, "these": true, "those": true,
	"i": true, "me": true, "my": true, "we": true, "our": true,
	"you": true, "your": true, "he": true, "him": true, "his": true,
	"she": true, "her": true, "it": true, "its": true, "they": true,
	"them": true, "their": true,
}

// tokenize splits a query into lowercase keywords, filtering stop words and
// short tokens.
func tokenize(query string) []string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	var out []string
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?\"'()-[]{}")
		if len(w) < 2 || stopWords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// contentOverlap reports how many of the query keywords appear anywhere in
// the lowercased text, as a fraction and a raw count.
func contentOverlap(queryKw []string, textLower string) (float64, int) {
	if len(queryKw) == 0 {
		return 0, 0
	}
	hits := 0
	for _, kw := range queryKw {
		if strings.Contains(textLower, kw) {
			hits++
		}
	}
	return float64(hits) / float64(len(queryKw)), hits
}
