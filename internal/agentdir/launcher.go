package agentdir

import (
	"log"
	"os/exec"
)

// ExecLauncher starts agent processes locally. Launches are fire-and-forget
// side effects of starting an investigation; a failed spawn is logged, never
// surfaced to the caller.
type ExecLauncher struct {
	Dir    *Directory
	logger *log.Logger
}

// NewExecLauncher builds a launcher over the directory.
func NewExecLauncher(dir *Directory) *ExecLauncher {
	return &ExecLauncher{
		Dir:    dir,
		logger: log.New(log.Writer(), "[LAUNCH] ", log.LstdFlags),
	}
}

// Launch spawns the named agent's command detached. Agents without a local
// command are assumed to attach on their own; only the launch is recorded.
func (l *ExecLauncher) Launch(agentName string) {
	for _, a := range l.Dir.Agents() {
		if a.Name != agentName {
			continue
		}
		if a.Command == "" {
			l.logger.Printf("agent %s has no local command, skipping spawn", agentName)
			return
		}
		bin := a.Path
		if bin == "" {
			bin = a.Command
		}
		cmd := exec.Command(bin)
		if err := cmd.Start(); err != nil {
			l.logger.Printf("spawn %s (%s): %v", agentName, bin, err)
			return
		}
		l.logger.Printf("spawned agent %s (pid %d)", agentName, cmd.Process.Pid)
		go func() { _ = cmd.Wait() }()
		return
	}
	l.logger.Printf("agent %s not in directory, nothing to spawn", agentName)
}
