package model

import (
	"errors"
	"time"
)

// Investigation status values.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

var (
	// ErrNoAgentsAvailable is returned when an investigation is started
	// against an empty agent directory.
	ErrNoAgentsAvailable = errors.New("no agents available")
	// ErrNoRequiredAgentsAvailable is returned when none of a template's
	// required agents can be matched against the directory.
	ErrNoRequiredAgentsAvailable = errors.New("no required agents available")
	// ErrExportFailure wraps errors from the document exporter.
	ErrExportFailure = errors.New("export failed")
)

// Agent describes a diagnostic agent known to the directory. Only Name is
// interpreted by the core; everything else is carried for the dashboard.
type Agent struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Command     string                 `json:"command,omitempty"`
	Available   bool                   `json:"available"`
	Path        string                 `json:"path,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Template is a predefined investigation blueprint. Templates are immutable
// and defined at process start.
type Template struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	RequiredAgents []string `json:"required_agents"`
	Urgency        string   `json:"urgency"`
}

// ChatMessage is a single message from the chat feed. IDs are unique within
// an investigation; re-delivered IDs are tolerated and dropped on merge.
type ChatMessage struct {
	ID        string                 `json:"id"`
	Role      string                 `json:"role,omitempty"`
	Agent     string                 `json:"agent,omitempty"`
	Content   string                 `json:"content,omitempty"`
	CreatedAt time.Time              `json:"created_at,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// AgentSession is one entry of the externally supplied session feed.
type AgentSession struct {
	Session    string        `json:"session,omitempty"`
	Messages   []ChatMessage `json:"messages"`
	LastActive time.Time     `json:"last_active,omitempty"`
}

// Record is an opaque, externally defined payload. Findings and
// recommendations are appended by the agent interaction layer; the core
// never looks inside.
type Record map[string]interface{}

// Investigation is a tracked troubleshooting session bound to a set of
// agents. Exactly one investigation is active at a time.
type Investigation struct {
	ID              string                   `json:"id"`
	Name            string                   `json:"name"`
	Description     string                   `json:"description,omitempty"`
	Agents          []string                 `json:"agents"`
	Status          string                   `json:"status"`
	CurrentStep     int                      `json:"current_step"`
	StartTime       time.Time                `json:"start_time"`
	EndTime         *time.Time               `json:"end_time,omitempty"`
	Findings        []Record                 `json:"findings"`
	Recommendations []Record                 `json:"recommendations"`
	ChatMessages    []ChatMessage            `json:"chat_messages"`
	AgentSessions   map[string][]ChatMessage `json:"agent_sessions,omitempty"`
}

// Clone returns a deep copy of the investigation suitable for handing to
// read-only collaborators. Opaque record payloads are shared, not copied.
func (inv *Investigation) Clone() *Investigation {
	if inv == nil {
		return nil
	}
	out := *inv
	out.Agents = append([]string(nil), inv.Agents...)
	out.Findings = append([]Record(nil), inv.Findings...)
	out.Recommendations = append([]Record(nil), inv.Recommendations...)
	out.ChatMessages = append([]ChatMessage(nil), inv.ChatMessages...)
	if inv.EndTime != nil {
		t := *inv.EndTime
		out.EndTime = &t
	}
	if inv.AgentSessions != nil {
		out.AgentSessions = make(map[string][]ChatMessage, len(inv.AgentSessions))
		for name, msgs := range inv.AgentSessions {
			out.AgentSessions[name] = append([]ChatMessage(nil), msgs...)
		}
	}
	return &out
}

// HasAgent reports whether name is part of the investigation's agent list.
func (inv *Investigation) HasAgent(name string) bool {
	for _, a := range inv.Agents {
		if a == name {
			return true
		}
	}
	return false
}
