package agentdir

import (
	"os"
	"path/filepath"
	"testing"

	"probedeck/config"
)

func TestDirectoryProbesCommands(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-agent")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	t.Setenv("PATH", dir)

	d := New(config.AgentsConfig{Directory: []config.AgentEntry{
		{Name: "fake", Command: "fake-agent"},
		{Name: "ghost", Command: "definitely-not-installed-anywhere"},
		{Name: "remote", Description: "no local command"},
	}})

	agents := d.Agents()
	if len(agents) != 3 {
		t.Fatalf("agents = %d", len(agents))
	}
	if !agents[0].Available || agents[0].Path != bin {
		t.Fatalf("fake agent: %+v", agents[0])
	}
	if agents[1].Available {
		t.Fatalf("missing binary reported available")
	}
	if !agents[2].Available {
		t.Fatalf("command-less agents are assumed reachable")
	}
}

func TestRefreshPicksUpNewBinary(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", dir)

	d := New(config.AgentsConfig{Directory: []config.AgentEntry{
		{Name: "late", Command: "late-agent"},
	}})
	if d.Agents()[0].Available {
		t.Fatalf("binary should not be found yet")
	}

	bin := filepath.Join(dir, "late-agent")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
	d.Refresh()
	if !d.Agents()[0].Available {
		t.Fatalf("refresh did not pick up new binary")
	}
}
