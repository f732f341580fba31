package investigation

import (
	"context"
	"errors"
	"testing"
	"time"

	"probedeck/internal/kv"
	"probedeck/internal/model"
)

type fakeDir struct{ agents []model.Agent }

func (d fakeDir) Agents() []model.Agent { return d.agents }

type recordingLauncher struct{ launched []string }

func (l *recordingLauncher) Launch(name string) { l.launched = append(l.launched, name) }

func newTestManager(agents []string) (*Manager, *recordingLauncher) {
	dir := fakeDir{}
	for _, a := range agents {
		dir.agents = append(dir.agents, model.Agent{Name: a, Available: true})
	}
	launcher := &recordingLauncher{}
	store := NewStore(kv.NewMemory(), 10*time.Millisecond)
	return NewManager(store, dir, launcher, nil), launcher
}

func TestStartFromTemplateEmptyDirectory(t *testing.T) {
	m, _ := newTestManager(nil)
	tpl := model.Template{ID: "t", RequiredAgents: []string{"k8s-agent"}}
	if _, _, err := m.StartFromTemplate(tpl); !errors.Is(err, model.ErrNoAgentsAvailable) {
		t.Fatalf("err = %v", err)
	}
}

func TestStartFromTemplateNoRequiredMatch(t *testing.T) {
	m, _ := newTestManager([]string{"unrelated"})
	tpl := model.Template{ID: "t", RequiredAgents: []string{"k8s-agent"}}
	if _, _, err := m.StartFromTemplate(tpl); !errors.Is(err, model.ErrNoRequiredAgentsAvailable) {
		t.Fatalf("err = %v", err)
	}
}

func TestFailedStartLeavesActiveUntouched(t *testing.T) {
	m, _ := newTestManager([]string{"unrelated"})
	current, _ := m.StartCustom(CustomConfig{Name: "keep me"})

	tpl := model.Template{ID: "t", RequiredAgents: []string{"k8s-agent"}}
	if _, _, err := m.StartFromTemplate(tpl); err == nil {
		t.Fatalf("expected start failure")
	}
	active := m.Store().Active()
	if active == nil || active.ID != current.ID {
		t.Fatalf("failed start must not disturb the active investigation: %+v", active)
	}
}

func TestStartFromTemplateAttachesOnlyResolvable(t *testing.T) {
	m, launcher := newTestManager([]string{"k8s-agent-prod", "db-agent"})
	tpl := model.Template{ID: "t", Name: "triage", RequiredAgents: []string{"k8s-agent", "ghost-agent", "db-agent"}}
	inv, launched, err := m.StartFromTemplate(tpl)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(inv.Agents) != 2 || inv.Agents[0] != "k8s-agent" || inv.Agents[1] != "db-agent" {
		t.Fatalf("agents = %v", inv.Agents)
	}
	if inv.Status != model.StatusActive || inv.CurrentStep != 0 {
		t.Fatalf("fresh investigation: %+v", inv)
	}
	// Launched agent is the directory entry behind the first resolvable
	// required name, not the logical name.
	if launched != "k8s-agent-prod" {
		t.Fatalf("launched = %q", launched)
	}
	if len(launcher.launched) != 1 || launcher.launched[0] != "k8s-agent-prod" {
		t.Fatalf("launcher calls = %v", launcher.launched)
	}
}

func TestStartFromTemplateOverwritesActive(t *testing.T) {
	m, _ := newTestManager([]string{"k8s-agent"})
	tpl := model.Template{ID: "t", RequiredAgents: []string{"k8s-agent"}}
	first, _, _ := m.StartFromTemplate(tpl)
	second, _, _ := m.StartFromTemplate(tpl)
	if first.ID == second.ID {
		t.Fatalf("ids must be unique")
	}
	if active := m.Store().Active(); active.ID != second.ID {
		t.Fatalf("active = %s", active.ID)
	}
	if len(m.Store().History()) != 0 {
		t.Fatalf("discarded investigation must not enter history")
	}
}

func TestStartCustomSkipsValidation(t *testing.T) {
	m, launcher := newTestManager(nil)
	inv, launched := m.StartCustom(CustomConfig{Name: "blank", Agents: nil})
	if inv == nil || inv.ID == "" {
		t.Fatalf("inv = %+v", inv)
	}
	if launched != "" || len(launcher.launched) != 0 {
		t.Fatalf("empty custom config must not launch anything")
	}
	if len(inv.Agents) != 0 {
		t.Fatalf("agents = %v", inv.Agents)
	}
}

func TestStartCustomLaunchesFirstDirectoryMatch(t *testing.T) {
	// Directory order decides, not the order agents are listed in the
	// config.
	m, launcher := newTestManager([]string{"metrics-agent", "db-agent"})
	_, launched := m.StartCustom(CustomConfig{Name: "c", Agents: []string{"db-agent", "metrics-agent"}})
	if launched != "metrics-agent" {
		t.Fatalf("launched = %q", launched)
	}
	if len(launcher.launched) != 1 || launcher.launched[0] != "metrics-agent" {
		t.Fatalf("launcher calls = %v", launcher.launched)
	}
}

func TestStartCustomNoDirectoryMatchLaunchesNothing(t *testing.T) {
	m, launcher := newTestManager([]string{"unrelated"})
	inv, launched := m.StartCustom(CustomConfig{Name: "c", Agents: []string{"mystery-tool"}})
	if launched != "" || len(launcher.launched) != 0 {
		t.Fatalf("launched = %q calls = %v", launched, launcher.launched)
	}
	// The investigation still starts with the requested agent list.
	if len(inv.Agents) != 1 || inv.Agents[0] != "mystery-tool" {
		t.Fatalf("agents = %v", inv.Agents)
	}
}

func TestArchiveAndClear(t *testing.T) {
	m, _ := newTestManager([]string{"k8s-agent"})
	tpl := model.Template{ID: "t", RequiredAgents: []string{"k8s-agent"}}
	started, _, _ := m.StartFromTemplate(tpl)

	archived := m.ArchiveAndClear()
	if archived == nil || archived.ID != started.ID {
		t.Fatalf("archived = %+v", archived)
	}
	if m.ArchiveAndClear() != nil {
		t.Fatalf("second archive should be nil")
	}
}

type failingExporter struct{}

func (failingExporter) Export(context.Context, *model.Investigation) ([]byte, error) {
	return nil, errors.New("chrome crashed")
}

func TestExportWrapsErrors(t *testing.T) {
	store := NewStore(kv.NewMemory(), 10*time.Millisecond)
	m := NewManager(store, fakeDir{}, nil, failingExporter{})
	_, err := m.Export(context.Background(), newTestInvestigation("a"))
	if !errors.Is(err, model.ErrExportFailure) {
		t.Fatalf("err = %v", err)
	}

	noExporter := NewManager(store, fakeDir{}, nil, nil)
	if _, err := noExporter.Export(context.Background(), newTestInvestigation("a")); !errors.Is(err, model.ErrExportFailure) {
		t.Fatalf("err = %v", err)
	}
}
