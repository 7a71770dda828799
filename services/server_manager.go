package services

import (
	"context"
	"encoding/xml"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tomcat-devloop/internal/artifact"
	"tomcat-devloop/internal/config"
	"tomcat-devloop/internal/logger"
	"tomcat-devloop/internal/models"
	"tomcat-devloop/internal/output"
	"tomcat-devloop/internal/proc"
	"tomcat-devloop/internal/utils"
)

// SettleDelay is how long a fresh server must stay alive to count as running.
const SettleDelay = 3 * time.Second

const (
	stopWait       = 2 * time.Second
	verifyAttempts = 3
	verifyInterval = 500 * time.Millisecond
)

type tomcatContext struct {
	XMLName    xml.Name `xml:"Context"`
	DocBase    string   `xml:"docBase,attr"`
	Reloadable bool     `xml:"reloadable,attr"`
}

/**
 * ServerManager owns the Tomcat process
 * @description
 * - State machine: stopped -> starting -> running | error, running -> stopped
 * - At most one managed process; a second start is rejected, never queued
 * - Stop always scans the OS, the managed handle is only a secondary target
 */
type ServerManager struct {
	ws         *config.Workspace
	executor   proc.Executor
	platform   utils.Platform
	discovery  *proc.Discovery
	terminator *proc.Terminator
	sink       output.Sink
	notifier   output.Notifier

	settleDelay    time.Duration
	stopWait       time.Duration
	verifyInterval time.Duration

	mutex        sync.Mutex
	state        models.ServerState
	process      *proc.ManagedProcess
	startTime    time.Time
	lastExitCode *int
	lastExitTime time.Time
	lastReason   string
	contextFile  string
}

func NewServerManager(ws *config.Workspace, executor proc.Executor, platform utils.Platform,
	patterns []string, sink output.Sink, notifier output.Notifier) *ServerManager {
	return &ServerManager{
		ws:             ws,
		executor:       executor,
		platform:       platform,
		discovery:      proc.NewDiscovery(platform, patterns),
		terminator:     proc.NewTerminator(platform),
		sink:           sink,
		notifier:       notifier,
		settleDelay:    SettleDelay,
		stopWait:       stopWait,
		verifyInterval: verifyInterval,
		state:          models.StateStopped,
	}
}

// setState 调用方必须持有锁
func (sm *ServerManager) setState(state models.ServerState, reason string) {
	if sm.state != state {
		logger.Infof("Server state %s -> %s (%s)", sm.state, state, reason)
		serverTransitions.WithLabelValues(string(state)).Inc()
	}
	sm.state = state
	sm.lastReason = reason
}

func (sm *ServerManager) fail(summary string, err error) error {
	sm.sink.AppendLine(fmt.Sprintf("%s: %v", summary, err))
	sm.notifier.Notify(output.LevelError, fmt.Sprintf("%s: %v", summary, err))
	return err
}

/**
 * Start Tomcat in JPDA debug mode
 * @param {context.Context} ctx - Cancelling during the settle delay kills the new process
 * @returns {error} nil once the process survived the settle delay
 * @description
 * - Requires TOMCAT_HOME, APP_CONTEXT and PROJECT_PATH
 * - Registers the context file before spawning catalina
 * - Pre-spawn failures leave the state at stopped
 */
func (sm *ServerManager) Start(ctx context.Context) error {
	sm.sink.Reveal()
	if missing := sm.ws.Missing(config.KeyTomcatHome, config.KeyAppContext, config.KeyProjectPath); len(missing) > 0 {
		return sm.fail("Failed to start Tomcat",
			fmt.Errorf("%w: %s", ErrConfigurationMissing, strings.Join(missing, ", ")))
	}

	sm.mutex.Lock()
	if sm.process != nil || sm.state == models.StateStarting {
		sm.mutex.Unlock()
		sm.sink.AppendLine("Tomcat is already running")
		sm.notifier.Notify(output.LevelWarn, "Tomcat is already running")
		return ErrAlreadyRunning
	}
	sm.setState(models.StateStarting, "start requested")
	sm.mutex.Unlock()

	mp, err := sm.spawn()
	if err != nil {
		sm.mutex.Lock()
		sm.setState(models.StateStopped, err.Error())
		sm.mutex.Unlock()
		return sm.fail("Failed to start Tomcat", err)
	}

	sm.mutex.Lock()
	sm.process = mp
	sm.startTime = mp.StartTime()
	sm.mutex.Unlock()

	timer := time.NewTimer(sm.settleDelay)
	defer timer.Stop()
	select {
	case <-mp.Done():
	case <-timer.C:
	case <-ctx.Done():
		mp.Kill()
		<-mp.Done()
		sm.handleExit(mp, false)
		return sm.fail("Tomcat start canceled", ctx.Err())
	}

	sm.mutex.Lock()
	if sm.process == mp && mp.Alive() {
		sm.setState(models.StateRunning, "settled")
		sm.mutex.Unlock()
		sm.sink.AppendLine(fmt.Sprintf("Tomcat started in debug mode (PID: %d, JPDA: %s)", mp.Pid(), sm.ws.DebugAddress()))
		sm.notifier.Notify(output.LevelInfo, "Tomcat started in debug mode")
		return nil
	}
	sm.mutex.Unlock()

	sm.handleExit(mp, false)
	code := "unknown"
	if c := mp.ExitCode(); c != nil {
		code = fmt.Sprint(*c)
	}
	return sm.fail("Failed to start Tomcat", fmt.Errorf("%w: exit code %s", ErrServerExited, code))
}

// spawn 执行启动前的检查并拉起catalina
func (sm *ServerManager) spawn() (*proc.ManagedProcess, error) {
	if err := sm.checkPaths(); err != nil {
		return nil, err
	}
	if _, err := sm.registerContext(); err != nil {
		return nil, err
	}

	script := filepath.Join(sm.ws.TomcatHome, "bin", sm.platform.ResolveScriptName("catalina"))
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("%w: tomcat script %s", ErrPathNotFound, script)
	}

	vars := sm.ws.EnvVars()
	vars[config.KeyJpdaAddress] = sm.ws.DebugAddress()
	vars["JPDA_TRANSPORT"] = "dt_socket"
	vars["JPDA_SUSPEND"] = "n"

	name, args := sm.platform.ShellCommand(script, "jpda", "run")
	c := proc.Command{
		Name: name,
		Args: args,
		Dir:  sm.ws.TomcatHome,
		Env:  overlayEnv(os.Environ(), vars),
	}
	sm.sink.AppendLine("Starting Tomcat in debug mode...")
	mp, err := sm.executor.Start(c, sm.sink, func(mp *proc.ManagedProcess) {
		sm.handleExit(mp, false)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessSpawn, err)
	}
	return mp, nil
}

/**
 * handleExit clears the handle of an exited process
 * @param {*proc.ManagedProcess} mp - The exited process
 * @param {bool} stopped - Exit caused by Stop
 * @description
 * - Ignored unless mp is the current handle, so it runs at most once per process
 * - Exiting while starting is an error; otherwise the server is stopped
 */
func (sm *ServerManager) handleExit(mp *proc.ManagedProcess, stopped bool) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	if sm.process != mp {
		return
	}
	sm.process = nil
	sm.lastExitCode = mp.ExitCode()
	sm.lastExitTime = mp.ExitTime()

	code := "unknown"
	if sm.lastExitCode != nil {
		code = fmt.Sprint(*sm.lastExitCode)
	}
	sm.sink.AppendLine(fmt.Sprintf("Tomcat stopped with code %s", code))

	switch {
	case stopped:
		sm.setState(models.StateStopped, "stopped by user")
	case sm.state == models.StateStarting:
		sm.setState(models.StateError, "exited during startup with code "+code)
	default:
		sm.setState(models.StateStopped, "exited with code "+code)
	}
}

/**
 * Stop every Tomcat process on this machine
 * @returns {error} ErrServerStillRunning when a matching process survives the kill pass
 * @description
 * - Kills sequentially in discovery order
 * - Verification rescans a few times to let killed processes disappear
 */
func (sm *ServerManager) Stop(ctx context.Context) error {
	sm.sink.Reveal()
	if missing := sm.ws.Missing(config.KeyTomcatHome); len(missing) > 0 {
		return sm.fail("Failed to stop Tomcat", fmt.Errorf("%w: %s", ErrConfigurationMissing, missing[0]))
	}
	sm.sink.AppendLine("Stopping Tomcat processes...")

	port := sm.ws.DebugPort()
	found := sm.discovery.FindServerProcesses(ctx, port)
	if len(found) == 0 {
		sm.sink.AppendLine("No Tomcat process found")
	}
	for _, p := range found {
		observeKill(sm.terminator.Kill(ctx, p, sm.sink))
	}

	sm.mutex.Lock()
	mp := sm.process
	sm.mutex.Unlock()
	if mp != nil {
		if mp.Alive() {
			mp.Kill()
		}
		select {
		case <-mp.Done():
			sm.handleExit(mp, true)
		case <-time.After(sm.stopWait):
			logger.Warnf("Managed process %d did not exit within %v", mp.Pid(), sm.stopWait)
		}
	}

	remaining := sm.verifyStopped(ctx, port)

	sm.mutex.Lock()
	if sm.process == nil {
		sm.setState(models.StateStopped, "stopped by user")
	}
	sm.mutex.Unlock()

	if len(remaining) > 0 {
		pids := make([]string, 0, len(remaining))
		for _, p := range remaining {
			pids = append(pids, p.PID)
		}
		err := fmt.Errorf("%w: %s", ErrServerStillRunning, strings.Join(pids, ", "))
		sm.sink.AppendLine(fmt.Sprintf("Some Tomcat processes may still be running: %s", strings.Join(pids, ", ")))
		sm.notifier.Notify(output.LevelWarn, "Some Tomcat processes may still be running")
		return err
	}
	sm.sink.AppendLine("All Tomcat processes stopped")
	sm.notifier.Notify(output.LevelInfo, "Tomcat stopped")
	return nil
}

func (sm *ServerManager) verifyStopped(ctx context.Context, port string) []models.DiscoveredProcess {
	var remaining []models.DiscoveredProcess
	for i := 0; i < verifyAttempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return remaining
			case <-time.After(sm.verifyInterval):
			}
		}
		remaining = sm.discovery.FindServerProcesses(ctx, port)
		if len(remaining) == 0 {
			return nil
		}
	}
	return remaining
}

// Shutdown kills the managed process, if any. Used when the owning session ends.
func (sm *ServerManager) Shutdown() {
	sm.mutex.Lock()
	mp := sm.process
	sm.mutex.Unlock()
	if mp == nil {
		return
	}
	mp.Kill()
	select {
	case <-mp.Done():
		sm.handleExit(mp, true)
	case <-time.After(sm.stopWait):
	}
}

/**
 * Check the development environment
 * @returns {error} ErrConfigurationMissing when JAVA_HOME, MAVEN_HOME or TOMCAT_HOME is empty
 * @description
 * - Paths missing on disk are warnings only
 */
func (sm *ServerManager) CheckEnvironment() error {
	sm.sink.AppendLine("Checking development environment...")
	if missing := sm.ws.Missing(config.KeyJavaHome, config.KeyMavenHome, config.KeyTomcatHome); len(missing) > 0 {
		return sm.fail("Environment check failed",
			fmt.Errorf("%w: %s", ErrConfigurationMissing, strings.Join(missing, ", ")))
	}
	if warnings := sm.pathWarnings(); len(warnings) > 0 {
		sm.notifier.Notify(output.LevelWarn, strings.Join(warnings, "; "))
		return nil
	}
	sm.sink.AppendLine("Environment configured")
	sm.notifier.Notify(output.LevelInfo, "Environment configured")
	return nil
}

func (sm *ServerManager) pathWarnings() []string {
	var warnings []string
	for _, key := range []string{config.KeyJavaHome, config.KeyMavenHome, config.KeyTomcatHome} {
		value := sm.ws.Value(key)
		if value == "" {
			continue
		}
		if _, err := os.Stat(value); err != nil {
			msg := fmt.Sprintf("Path %s not found: %s", key, value)
			sm.sink.AppendLine("Warning: " + msg)
			warnings = append(warnings, msg)
		}
	}
	return warnings
}

// checkPaths：TOMCAT_HOME不存在是硬错误，其余只告警
func (sm *ServerManager) checkPaths() error {
	sm.pathWarnings()
	if _, err := os.Stat(sm.ws.TomcatHome); err != nil {
		return fmt.Errorf("%w: %s %s", ErrPathNotFound, config.KeyTomcatHome, sm.ws.TomcatHome)
	}
	return nil
}

// ContextFile is where Tomcat reads the context of appContext.
func ContextFile(tomcatHome, appContext string) string {
	name := strings.ReplaceAll(appContext, "/", "")
	return filepath.Join(tomcatHome, "conf", "Catalina", "localhost", name+".xml")
}

/**
 * Register the deployed artifact with Tomcat
 * @returns {string} Context file path
 * @returns {error} ErrConfigurationMissing, ErrArtifactNotFound or ErrFilesystem
 */
func (sm *ServerManager) RegisterContext() (string, error) {
	if missing := sm.ws.Missing(config.KeyTomcatHome, config.KeyAppContext, config.KeyProjectPath); len(missing) > 0 {
		return "", sm.fail("Failed to create context",
			fmt.Errorf("%w: %s", ErrConfigurationMissing, strings.Join(missing, ", ")))
	}
	file, err := sm.registerContext()
	if err != nil {
		return "", sm.fail("Failed to create context", err)
	}
	sm.notifier.Notify(output.LevelInfo, "Context created")
	return file, nil
}

func (sm *ServerManager) registerContext() (string, error) {
	docBase, err := artifact.Resolve(sm.ws.ProjectPath, sm.ws.AppContext)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrArtifactNotFound, artifact.TargetDir(sm.ws.ProjectPath, sm.ws.AppContext))
	}

	file := ContextFile(sm.ws.TomcatHome, sm.ws.AppContext)
	data, err := xml.MarshalIndent(tomcatContext{DocBase: docBase, Reloadable: true}, "", "    ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFilesystem, err)
	}
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFilesystem, err)
	}
	content := append([]byte(xml.Header), data...)
	if err := os.WriteFile(file, append(content, '\n'), 0644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFilesystem, err)
	}

	sm.mutex.Lock()
	sm.contextFile = file
	sm.mutex.Unlock()
	sm.sink.AppendLine("Context created: " + file)
	sm.sink.AppendLine("   Webapp path: " + docBase)
	sm.sink.AppendLine("   Application context: " + sm.ws.AppContext)
	return file, nil
}

// IsRunning is a live query of the managed handle.
func (sm *ServerManager) IsRunning() bool {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	return sm.process != nil && sm.process.Alive()
}

func (sm *ServerManager) State() models.ServerState {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	return sm.state
}

func (sm *ServerManager) Status() models.ServerStatus {
	ws := sm.ws.Snapshot()
	sm.mutex.Lock()
	status := models.ServerStatus{
		State:        sm.state,
		LastExitCode: sm.lastExitCode,
		LastReason:   sm.lastReason,
		DebugAddress: ws.DebugAddress(),
		AppContext:   ws.AppContext,
		ContextFile:  sm.contextFile,
	}
	if sm.process != nil {
		status.Pid = sm.process.Pid()
		start := sm.startTime
		status.StartTime = &start
	}
	if !sm.lastExitTime.IsZero() {
		exit := sm.lastExitTime
		status.LastExitTime = &exit
	}
	sm.mutex.Unlock()

	host, _, err := net.SplitHostPort(status.DebugAddress)
	if err != nil {
		host = ""
	}
	status.DebugPortOpen = !utils.CheckPortAvailable(host, ws.DebugPort())
	return status
}

// Processes lists the server processes currently visible to discovery.
func (sm *ServerManager) Processes(ctx context.Context) []models.DiscoveredProcess {
	return sm.discovery.FindServerProcesses(ctx, sm.ws.Snapshot().DebugPort())
}
