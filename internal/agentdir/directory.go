package agentdir

import (
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"probedeck/config"
	"probedeck/internal/model"
)

// wellKnownDirs are checked for agent binaries that are installed outside
// PATH, mirroring how the desktop shell located its tools.
var wellKnownDirs = []string{
	"/usr/local/bin",
	"/opt/homebrew/bin",
	"/opt/homebrew/sbin",
}

// Directory holds the agent descriptors supplied to the investigation core.
// Entries come from configuration; entries that name a local command are
// probed for availability, everything else is assumed reachable remotely.
type Directory struct {
	mu     sync.RWMutex
	agents []model.Agent
	logger *log.Logger
}

// New builds a directory from config and runs an initial probe pass.
func New(cfg config.AgentsConfig) *Directory {
	d := &Directory{logger: log.New(log.Writer(), "[AGENTS] ", log.LstdFlags)}
	for _, entry := range cfg.Directory {
		d.agents = append(d.agents, model.Agent{
			Name:        entry.Name,
			Description: entry.Description,
			Command:     entry.Command,
		})
	}
	d.Refresh()
	return d
}

// Agents returns a copy of the directory in its configured order.
func (d *Directory) Agents() []model.Agent {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]model.Agent, len(d.agents))
	copy(out, d.agents)
	return out
}

// Refresh re-probes availability of command-backed agents.
func (d *Directory) Refresh() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.agents {
		if d.agents[i].Command == "" {
			d.agents[i].Available = true
			continue
		}
		path, ok := probe(d.agents[i].Command)
		if ok != d.agents[i].Available {
			d.logger.Printf("agent %s availability -> %v", d.agents[i].Name, ok)
		}
		d.agents[i].Available = ok
		d.agents[i].Path = path
	}
}

// probe locates a tool on PATH, then in well-known install dirs.
func probe(command string) (string, bool) {
	if path, err := exec.LookPath(command); err == nil {
		return path, true
	}
	for _, dir := range wellKnownDirs {
		candidate := filepath.Join(dir, command)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}
