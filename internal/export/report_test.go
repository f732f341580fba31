package export

import (
	"strings"
	"testing"
	"time"

	"probedeck/internal/model"
)

func TestRenderHTMLEscapesAndIncludesSections(t *testing.T) {
	end := time.Now().UTC()
	inv := &model.Investigation{
		ID:          "inv-1",
		Name:        "API <script>alert(1)</script>",
		Description: "p99 latency spike",
		Agents:      []string{"k8s-agent"},
		Status:      model.StatusArchived,
		StartTime:   end.Add(-time.Hour),
		EndTime:     &end,
		Findings: []model.Record{
			{"title": "pod restarts", "count": 12},
		},
		Recommendations: []model.Record{
			{"summary": "raise memory limit"},
		},
		ChatMessages: []model.ChatMessage{
			{ID: "m1", Role: "user", Content: "what changed?", CreatedAt: end},
		},
	}
	html := RenderHTML(inv)

	if strings.Contains(html, "<script>") {
		t.Fatalf("name not escaped")
	}
	for _, want := range []string{
		"API &lt;script&gt;",
		"p99 latency spike",
		"k8s-agent",
		"pod restarts",
		"raise memory limit",
		"what changed?",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("report missing %q", want)
		}
	}
}

func TestRenderHTMLSkipsEmptySections(t *testing.T) {
	inv := &model.Investigation{ID: "inv-1", Name: "bare", Status: model.StatusActive, StartTime: time.Now()}
	html := RenderHTML(inv)
	if strings.Contains(html, "Findings") || strings.Contains(html, "Transcript") {
		t.Fatalf("empty sections should be omitted")
	}
}
