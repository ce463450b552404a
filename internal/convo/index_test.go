package convo

import (
	"path/filepath"
	"testing"
)

func TestIndexRebuildFindsConversationByKeyword(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	conv, err := s.Create("weather question")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Append(conv.Metadata.ID, NewChatRequest("what is the weather forecast today", nil)); err != nil {
		t.Fatalf("append: %v", err)
	}

	idx, err := OpenIndex(filepath.Join(t.TempDir(), "index.sqlite"))
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer idx.Close()
	s.UseIndex(idx)

	if err := idx.Rebuild(s); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	results, err := idx.Search("weather forecast")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ConversationID != conv.Metadata.ID {
		t.Fatalf("search results = %+v", results)
	}
}

func TestIndexUpdatesOnAppend(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	idx, err := OpenIndex(filepath.Join(t.TempDir(), "index.sqlite"))
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer idx.Close()
	s.UseIndex(idx)

	conv, err := s.Create("live indexing")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Append(conv.Metadata.ID, NewChatRequest("please restart the deployment pipeline", nil)); err != nil {
		t.Fatalf("append: %v", err)
	}

	results, err := idx.Search("restart deployment pipeline")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ConversationID != conv.Metadata.ID {
		t.Fatalf("search results = %+v", results)
	}
}
