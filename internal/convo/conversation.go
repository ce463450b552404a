package convo

import (
	"regexp"
	"strings"
	"time"
)

// Metadata is the small, always-loaded summary of a conversation kept in its
// metadata.* file; everything else (the event log) is loaded lazily.
type Metadata struct {
	ID        string         `json:"id"`
	Title     string         `json:"title,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Context   map[string]any `json:"context,omitempty"`
}

// Conversation is a single conversation: its metadata plus, once loaded, its
// full event log. Events is nil until the store has paged it in.
type Conversation struct {
	Metadata Metadata
	Events   []Event
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// toDirname derives the on-disk directory slug for a conversation from its
// title and id, e.g. "fix-login-bug-jp-c1a2b3c4d5-xy9z2q". The slug is
// cosmetic only: the id suffix is what actually identifies the directory, so
// a later title change never requires a rename to stay resolvable.
func toDirname(id, title string) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "-")
	slug = strings.Trim(slug, "-")
	const maxSlugLen = 48
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return id
	}
	return slug + "-" + id
}
