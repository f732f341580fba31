// Package export renders investigation reports as HTML and PDF.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"probedeck/internal/model"
)

// RenderHTML produces a minimal Tailwind-styled report with collapsible
// sections. Class names are included so the dashboard can style the same
// markup if it serves it inline.
func RenderHTML(inv *model.Investigation) string {
	var b strings.Builder
	b.WriteString("<!doctype html><html lang=\"en\" dir=\"auto\"><head><meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	b.WriteString("<title>Investigation — " + htmlEscape(inv.Name) + "</title>")
	b.WriteString("</head><body class=\"bg-slate-950 text-slate-100 p-6\">")
	b.WriteString("<div id=\"main\" tabindex=\"-1\" class=\"max-w-4xl mx-auto space-y-6\">")
	b.WriteString("<header class=\"space-y-1\"><h1 class=\"text-xl font-semibold\">" + htmlEscape(inv.Name) + " — Investigation Report</h1>")
	b.WriteString("<div class=\"text-xs text-slate-400\">Started " + inv.StartTime.Format(time.RFC3339))
	if inv.EndTime != nil {
		b.WriteString(" · Ended " + inv.EndTime.Format(time.RFC3339))
	}
	b.WriteString(" · Status: " + htmlEscape(inv.Status) + "</div></header>")

	if inv.Description != "" {
		b.WriteString("<section><h2 class=\"text-sm font-semibold mb-2\">Summary</h2><p class=\"text-sm\">" + htmlEscape(inv.Description) + "</p></section>")
	}

	if len(inv.Agents) > 0 {
		b.WriteString("<section><h2 class=\"text-sm font-semibold mb-2\">Agents</h2><ul class=\"text-sm list-disc pl-5\">")
		for _, a := range inv.Agents {
			b.WriteString("<li>" + htmlEscape(a) + "</li>")
		}
		b.WriteString("</ul></section>")
	}

	writeRecordSection(&b, "Findings", inv.Findings)
	writeRecordSection(&b, "Recommendations", inv.Recommendations)

	if len(inv.ChatMessages) > 0 {
		b.WriteString("<section class=\"space-y-2\"><h2 class=\"text-sm font-semibold\">Transcript</h2>")
		for _, m := range inv.ChatMessages {
			label := m.Role
			if m.Agent != "" {
				label = m.Agent
			}
			if label == "" {
				label = "message"
			}
			b.WriteString("<details class=\"rounded border border-slate-800 bg-slate-900/40\"><summary class=\"px-3 py-2 cursor-pointer\">" + htmlEscape(label))
			if !m.CreatedAt.IsZero() {
				b.WriteString(" <span class=\"text-xs text-slate-400\">" + m.CreatedAt.Format(time.RFC3339) + "</span>")
			}
			b.WriteString("</summary><div class=\"px-3 pb-3 text-sm\"><p>" + htmlEscape(m.Content) + "</p></div></details>")
		}
		b.WriteString("</section>")
	}

	b.WriteString("</div></body></html>")
	return b.String()
}

// writeRecordSection renders opaque records as collapsible entries. A
// record's "title" or "summary" key names the entry when present; the full
// payload is pretty-printed inside.
func writeRecordSection(b *strings.Builder, heading string, records []model.Record) {
	if len(records) == 0 {
		return
	}
	b.WriteString("<section class=\"space-y-2\"><h2 class=\"text-sm font-semibold\">" + htmlEscape(heading) + "</h2>")
	for i, rec := range records {
		title := recordTitle(rec)
		if title == "" {
			title = fmt.Sprintf("%s #%d", heading, i+1)
		}
		b.WriteString("<details class=\"rounded border border-slate-800 bg-slate-900/40\"><summary class=\"px-3 py-2 cursor-pointer\">" + htmlEscape(title) + "</summary>")
		raw, err := json.MarshalIndent(rec, "", "  ")
		if err == nil {
			b.WriteString("<pre class=\"px-3 pb-3 text-xs whitespace-pre-wrap\">" + htmlEscape(string(raw)) + "</pre>")
		}
		b.WriteString("</details>")
	}
	b.WriteString("</section>")
}

func recordTitle(rec model.Record) string {
	for _, key := range []string{"title", "summary", "name"} {
		if s, ok := rec[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;", "'", "&#39;")
	return r.Replace(s)
}
