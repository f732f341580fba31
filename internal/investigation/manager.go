package investigation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"probedeck/internal/catalog"
	"probedeck/internal/model"
)

// AgentDirectory is the read side of the agent registry.
type AgentDirectory interface {
	Agents() []model.Agent
}

// Launcher starts a diagnostic agent process or session by name. The
// manager treats launches as best-effort side effects.
type Launcher interface {
	Launch(agentName string)
}

// Exporter renders an investigation into a downloadable document.
type Exporter interface {
	Export(ctx context.Context, inv *model.Investigation) ([]byte, error)
}

// CustomConfig carries the caller-supplied shape of a custom investigation.
// No validation is applied: name, description and agents are taken as
// given, including an empty agent list.
type CustomConfig struct {
	Name        string
	Description string
	Agents      []string
}

// Manager drives the investigation lifecycle: starting from templates or
// custom configs, archiving, and exporting. It composes the store, the
// agent directory and the launcher.
type Manager struct {
	store    *Store
	dir      AgentDirectory
	launcher Launcher
	exporter Exporter
	logger   *log.Logger
}

// NewManager wires the lifecycle components. launcher and exporter may be
// nil; the corresponding features then degrade to no-ops and errors.
func NewManager(store *Store, dir AgentDirectory, launcher Launcher, exporter Exporter) *Manager {
	return &Manager{
		store:    store,
		dir:      dir,
		launcher: launcher,
		exporter: exporter,
		logger:   log.New(log.Writer(), "[INVEST] ", log.LstdFlags),
	}
}

// Store exposes the underlying state store.
func (m *Manager) Store() *Store { return m.store }

// StartFromTemplate starts a template-based investigation. The directory
// must be non-empty and at least one required agent must resolve; the new
// investigation carries only the resolvable required agents. The returned
// string is the agent name handed to the launcher. Any previously active
// investigation is discarded by the overwrite.
func (m *Manager) StartFromTemplate(t model.Template) (*model.Investigation, string, error) {
	dir := m.dir.Agents()
	if len(dir) == 0 {
		return nil, "", model.ErrNoAgentsAvailable
	}
	available := catalog.AvailableRequired(t, dir)
	if len(available) == 0 {
		return nil, "", fmt.Errorf("template %s: %w", t.ID, model.ErrNoRequiredAgentsAvailable)
	}

	inv := newInvestigation(t.Name, t.Description, available)
	m.store.SetActive(inv)
	investigationsStarted.WithLabelValues("template").Inc()
	m.logger.Printf("started investigation %s from template %s (%d/%d agents)",
		inv.ID, t.ID, len(available), len(t.RequiredAgents))

	launched := m.launchFor(t, available, dir)
	return inv.Clone(), launched, nil
}

// StartCustom starts a caller-shaped investigation without validation. An
// empty agent list is permitted. The first directory agent whose name
// appears in the config's agent list is launched, if any.
func (m *Manager) StartCustom(cfg CustomConfig) (*model.Investigation, string) {
	inv := newInvestigation(cfg.Name, cfg.Description, cfg.Agents)
	m.store.SetActive(inv)
	investigationsStarted.WithLabelValues("custom").Inc()
	m.logger.Printf("started custom investigation %s (%d agents)", inv.ID, len(cfg.Agents))

	launched := ""
	if len(cfg.Agents) > 0 {
		wanted := make(map[string]struct{}, len(cfg.Agents))
		for _, name := range cfg.Agents {
			wanted[name] = struct{}{}
		}
		for _, a := range m.dir.Agents() {
			if _, ok := wanted[a.Name]; ok {
				launched = a.Name
				m.launch(launched)
				break
			}
		}
	}
	return inv.Clone(), launched
}

// ArchiveAndClear closes the active investigation into history. Returns
// the archived copy, or nil when nothing was active.
func (m *Manager) ArchiveAndClear() *model.Investigation {
	archived := m.store.Archive()
	if archived != nil {
		m.logger.Printf("archived investigation %s", archived.ID)
	}
	return archived
}

// DeleteFromHistory removes an archived investigation by id.
func (m *Manager) DeleteFromHistory(id string) {
	m.store.RemoveFromHistory(id)
}

// Export renders an investigation document via the configured exporter.
func (m *Manager) Export(ctx context.Context, inv *model.Investigation) ([]byte, error) {
	if m.exporter == nil {
		return nil, fmt.Errorf("%w: no exporter configured", model.ErrExportFailure)
	}
	data, err := m.exporter.Export(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrExportFailure, err)
	}
	return data, nil
}

// launchFor picks the agent to hand to the launcher when a template
// investigation starts. Preference order: the first required agent that
// resolves to a directory entry, the resolution of the first required
// agent, the first required name verbatim, the first directory entry.
func (m *Manager) launchFor(t model.Template, available []string, dir []model.Agent) string {
	if len(available) > 0 {
		if resolved, ok := catalog.ResolveAgent(available[0], dir); ok {
			m.launch(resolved.Name)
			return resolved.Name
		}
	}
	if len(t.RequiredAgents) > 0 {
		if resolved, ok := catalog.ResolveAgent(t.RequiredAgents[0], dir); ok {
			m.launch(resolved.Name)
			return resolved.Name
		}
		m.launch(t.RequiredAgents[0])
		return t.RequiredAgents[0]
	}
	if len(dir) > 0 {
		m.launch(dir[0].Name)
		return dir[0].Name
	}
	return ""
}

func (m *Manager) launch(name string) {
	if m.launcher == nil || name == "" {
		return
	}
	m.launcher.Launch(name)
}

// newInvestigation builds a fresh active investigation. Collections start
// empty rather than nil so serialised state always carries arrays.
func newInvestigation(name, description string, agents []string) *model.Investigation {
	return &model.Investigation{
		ID:              uuid.NewString(),
		Name:            name,
		Description:     description,
		Agents:          append([]string{}, agents...),
		Status:          model.StatusActive,
		CurrentStep:     0,
		StartTime:       time.Now().UTC(),
		Findings:        []model.Record{},
		Recommendations: []model.Record{},
		ChatMessages:    []model.ChatMessage{},
	}
}
