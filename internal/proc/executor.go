package proc

import (
	"context"
	"fmt"
	"io"
	"time"
)

type FailureKind string

const (
	FailureNone     FailureKind = ""
	FailureSpawn    FailureKind = "spawn"
	FailureTimeout  FailureKind = "timeout"
	FailureExit     FailureKind = "exit"
	FailureCanceled FailureKind = "canceled"
)

/**
 * Result of one command execution
 * @property {bool} Success - Exit code 0 within the timeout
 * @property {*int} ExitCode - Exit code, nil when the process never exited on its own
 * @property {FailureKind} Kind - Why it failed, empty on success
 * @property {error} Err - Underlying error, if any
 */
type Result struct {
	Success  bool
	ExitCode *int
	Kind     FailureKind
	Err      error
	Duration time.Duration
	Pid      int
}

// Executor runs external commands. Execute blocks until exit; Start returns a live handle.
type Executor interface {
	Execute(ctx context.Context, c Command, sink io.Writer) Result
	Start(c Command, sink io.Writer, onExit func(*ManagedProcess)) (*ManagedProcess, error)
}

// drainGrace bounds how long output is awaited after exit, in case descendants keep the pipes open.
const drainGrace = 2 * time.Second

type CommandExecutor struct{}

func NewCommandExecutor() *CommandExecutor {
	return &CommandExecutor{}
}

func (e *CommandExecutor) Start(c Command, sink io.Writer, onExit func(*ManagedProcess)) (*ManagedProcess, error) {
	return Spawn(c, sink, onExit)
}

/**
 * Execute a command to completion
 * @param {context.Context} ctx - Cancels the run, the child is killed
 * @param {Command} c - Command with optional timeout
 * @param {io.Writer} sink - Receives child output and diagnostics
 * @returns {Result} Never panics; every failure is described by the result
 */
func (e *CommandExecutor) Execute(ctx context.Context, c Command, sink io.Writer) Result {
	started := time.Now()
	mp, err := Spawn(c, sink, nil)
	if err != nil {
		if sink != nil {
			fmt.Fprintf(sink, "Failed to run '%s': %v\n", c.String(), err)
		}
		return Result{Kind: FailureSpawn, Err: err, Duration: time.Since(started)}
	}

	var timeout <-chan time.Time
	if c.Timeout > 0 {
		timer := time.NewTimer(c.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	kind := FailureNone
	select {
	case <-mp.Done():
	case <-timeout:
		kind = FailureTimeout
		mp.Kill()
		<-mp.Done()
	case <-ctx.Done():
		kind = FailureCanceled
		mp.Kill()
		<-mp.Done()
	}

	select {
	case <-mp.Drained():
	case <-time.After(drainGrace):
	}

	res := Result{Kind: kind, Duration: time.Since(started), Pid: mp.Pid()}
	switch kind {
	case FailureTimeout:
		res.Err = fmt.Errorf("'%s' timed out after %v", c.Name, c.Timeout)
	case FailureCanceled:
		res.Err = ctx.Err()
	default:
		res.ExitCode = mp.ExitCode()
		if res.ExitCode != nil && *res.ExitCode == 0 {
			res.Success = true
		} else {
			res.Kind = FailureExit
			res.Err = mp.Err()
		}
	}
	return res
}
