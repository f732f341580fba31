package search

import (
	"testing"
	"time"

	"probedeck/internal/model"
)

func archived(id, name, chat string) model.Investigation {
	end := time.Now().UTC()
	return model.Investigation{
		ID:        id,
		Name:      name,
		Status:    model.StatusArchived,
		StartTime: end.Add(-time.Hour),
		EndTime:   &end,
		ChatMessages: []model.ChatMessage{
			{ID: id + "-m1", Content: chat},
		},
	}
}

func TestSearchFindsByNameAndChat(t *testing.T) {
	ix, err := New()
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	inv := archived("inv-1", "postgres slowdown", "vacuum was stuck behind a long transaction")
	if err := ix.IndexInvestigation(&inv); err != nil {
		t.Fatalf("index: %v", err)
	}
	other := archived("inv-2", "dns flakiness", "resolver timeouts on node pool b")
	if err := ix.IndexInvestigation(&other); err != nil {
		t.Fatalf("index: %v", err)
	}

	hits, err := ix.Search("postgres", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "inv-1" || hits[0].Name != "postgres slowdown" {
		t.Fatalf("hits = %+v", hits)
	}

	hits, err = ix.Search("vacuum", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "inv-1" {
		t.Fatalf("chat content not searchable: %+v", hits)
	}
}

func TestRemoveAndRebuild(t *testing.T) {
	ix, err := New()
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	inv := archived("inv-1", "postgres slowdown", "x")
	_ = ix.IndexInvestigation(&inv)
	if err := ix.Remove("inv-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	hits, _ := ix.Search("postgres", 10)
	if len(hits) != 0 {
		t.Fatalf("removed doc still indexed: %+v", hits)
	}

	history := []model.Investigation{
		archived("a", "redis evictions", "maxmemory"),
		archived("b", "cert expiry", "renewal job died"),
	}
	if err := ix.Rebuild(history); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	hits, _ = ix.Search("redis", 10)
	if len(hits) != 1 || hits[0].ID != "a" {
		t.Fatalf("hits = %+v", hits)
	}
}
