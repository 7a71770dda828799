package services

import (
	"context"
	"io"
	"sync"

	"tomcat-devloop/internal/models"
	"tomcat-devloop/internal/proc"
)

// fakeExecutor records commands and replays scripted results
type fakeExecutor struct {
	mu       sync.Mutex
	results  []proc.Result
	commands []proc.Command
	started  []proc.Command
	output   string
	start    func(c proc.Command, sink io.Writer, onExit func(*proc.ManagedProcess)) (*proc.ManagedProcess, error)
}

func (f *fakeExecutor) Execute(ctx context.Context, c proc.Command, sink io.Writer) proc.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, c)
	if f.output != "" && sink != nil {
		io.WriteString(sink, f.output)
	}
	if len(f.results) == 0 {
		code := 0
		return proc.Result{Success: true, ExitCode: &code}
	}
	res := f.results[0]
	f.results = f.results[1:]
	return res
}

func (f *fakeExecutor) Start(c proc.Command, sink io.Writer, onExit func(*proc.ManagedProcess)) (*proc.ManagedProcess, error) {
	f.mu.Lock()
	f.started = append(f.started, c)
	start := f.start
	f.mu.Unlock()
	if start == nil {
		return proc.Spawn(c, sink, onExit)
	}
	return start(c, sink, onExit)
}

func (f *fakeExecutor) Commands() []proc.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]proc.Command(nil), f.commands...)
}

func (f *fakeExecutor) Started() []proc.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]proc.Command(nil), f.started...)
}

// fakePlatform serves canned discovery results; killed pids disappear unless sticky
type fakePlatform struct {
	mu        sync.Mutex
	processes []models.DiscoveredProcess
	sticky    map[string]bool
	killed    []string
}

func (f *fakePlatform) ListProcessesByPort(ctx context.Context, port string) ([]models.DiscoveredProcess, error) {
	return nil, nil
}

func (f *fakePlatform) ListProcessesByPattern(ctx context.Context, patterns []string) ([]models.DiscoveredProcess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.DiscoveredProcess(nil), f.processes...), nil
}

func (f *fakePlatform) KillProcess(ctx context.Context, pid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killed = append(f.killed, pid)
	if f.sticky[pid] {
		return nil
	}
	kept := f.processes[:0]
	for _, p := range f.processes {
		if p.PID != pid {
			kept = append(kept, p)
		}
	}
	f.processes = kept
	return nil
}

func (f *fakePlatform) Killed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.killed...)
}

func (f *fakePlatform) ResolveScriptName(base string) string { return base + ".sh" }
func (f *fakePlatform) ExecutableName(base string) string    { return base }
func (f *fakePlatform) ShellCommand(script string, args ...string) (string, []string) {
	return "/bin/sh", append([]string{script}, args...)
}
