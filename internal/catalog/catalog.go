package catalog

import (
	"strings"

	"probedeck/internal/model"
)

// templates is the built-in blueprint set. The list is closed; custom
// investigations bypass it entirely.
var templates = []model.Template{
	{
		ID:             "k8s-triage",
		Name:           "Kubernetes Cluster Triage",
		Description:    "Walk through pod, node and workload health for a misbehaving cluster.",
		RequiredAgents: []string{"k8s-agent", "metrics-agent"},
		Urgency:        "high",
	},
	{
		ID:             "azure-resource-audit",
		Name:           "Azure Resource Audit",
		Description:    "Inventory and audit Azure resources tied to a failing subscription.",
		RequiredAgents: []string{"azure-resource-finder", "az"},
		Urgency:        "medium",
	},
	{
		ID:             "service-crash-loop",
		Name:           "Service Crash Loop",
		Description:    "Correlate restarts, logs and recent deploys for a crash-looping service.",
		RequiredAgents: []string{"logs-agent", "deploy-agent"},
		Urgency:        "critical",
	},
	{
		ID:             "network-latency",
		Name:           "Network Latency Hunt",
		Description:    "Trace elevated latency across load balancers, DNS and service hops.",
		RequiredAgents: []string{"network-agent", "metrics-agent"},
		Urgency:        "medium",
	},
	{
		ID:             "database-slowdown",
		Name:           "Database Slowdown",
		Description:    "Inspect slow queries, locks and connection pools on a degraded database.",
		RequiredAgents: []string{"db-agent"},
		Urgency:        "high",
	},
}

// Templates returns the static template catalog.
func Templates() []model.Template {
	out := make([]model.Template, len(templates))
	copy(out, templates)
	return out
}

// TemplateByID looks a template up by id.
func TemplateByID(id string) (model.Template, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return model.Template{}, false
}

// ResolveAgent maps a required-agent name to a directory entry. Matching is
// a two-pass scan in directory order: exact name equality first, then
// case-insensitive containment of required within the agent name. Required
// names are logical roles ("k8s-agent") while directory entries may carry
// decorated names ("k8s-agent-prod"); the reverse containment never matches.
func ResolveAgent(required string, dir []model.Agent) (model.Agent, bool) {
	for _, a := range dir {
		if a.Name == required {
			return a, true
		}
	}
	lowered := strings.ToLower(required)
	for _, a := range dir {
		if strings.Contains(strings.ToLower(a.Name), lowered) {
			return a, true
		}
	}
	return model.Agent{}, false
}

// IsAgentAvailable reports whether required resolves against the directory.
func IsAgentAvailable(required string, dir []model.Agent) bool {
	_, ok := ResolveAgent(required, dir)
	return ok
}

// AvailableRequired filters a template's required agents down to the ones
// that resolve, preserving template order.
func AvailableRequired(t model.Template, dir []model.Agent) []string {
	var out []string
	for _, name := range t.RequiredAgents {
		if IsAgentAvailable(name, dir) {
			out = append(out, name)
		}
	}
	return out
}

// TemplateAvailable reports whether at least one required agent resolves.
// Partial coverage is enough; an investigation may start degraded.
func TemplateAvailable(t model.Template, dir []model.Agent) bool {
	return len(AvailableRequired(t, dir)) > 0
}
