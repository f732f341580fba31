package model

import (
	"testing"
	"time"
)

func sampleInvestigation() *Investigation {
	end := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	return &Investigation{
		ID:          "inv-1",
		Name:        "API latency",
		Description: "p99 spiking",
		Agents:      []string{"k8s-agent", "metrics-agent"},
		Status:      StatusArchived,
		CurrentStep: 3,
		StartTime:   time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		EndTime:     &end,
		Findings:    []Record{{"title": "pod restarts", "count": float64(12)}},
		ChatMessages: []ChatMessage{
			{ID: "m1", Role: "user", Content: "what changed?"},
		},
		AgentSessions: map[string][]ChatMessage{
			"k8s-agent": {{ID: "s1", Content: "checking pods"}},
		},
	}
}

func TestInvestigationRoundTrip(t *testing.T) {
	inv := sampleInvestigation()
	raw, err := EncodeInvestigation(inv)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeInvestigation(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	raw2, err := EncodeInvestigation(decoded)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if raw != raw2 {
		t.Fatalf("round trip not stable:\n%s\n%s", raw, raw2)
	}
}

func TestDecodeInvestigationRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "not json", "{}", `{"name":"no id"}`} {
		if _, err := DecodeInvestigation(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	history := []Investigation{*sampleInvestigation()}
	raw, err := EncodeHistory(history)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeHistory(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 1 || decoded[0].ID != "inv-1" {
		t.Fatalf("got %+v", decoded)
	}
}

func TestCloneIsDeep(t *testing.T) {
	inv := sampleInvestigation()
	cp := inv.Clone()
	cp.Agents[0] = "mutated"
	cp.ChatMessages[0].Content = "mutated"
	cp.AgentSessions["k8s-agent"][0].Content = "mutated"
	if inv.Agents[0] == "mutated" || inv.ChatMessages[0].Content == "mutated" {
		t.Fatalf("clone shares slices with original")
	}
	if inv.AgentSessions["k8s-agent"][0].Content == "mutated" {
		t.Fatalf("clone shares session transcripts")
	}
	var nilInv *Investigation
	if nilInv.Clone() != nil {
		t.Fatalf("nil clone should be nil")
	}
}
