package services

import (
	"context"
	"sync"
	"time"

	"tomcat-devloop/internal/config"
	"tomcat-devloop/internal/logger"
	"tomcat-devloop/internal/output"
	"tomcat-devloop/internal/proc"
	"tomcat-devloop/internal/utils"
)

/**
 * RuntimeOptions wires the collaborators of a Runtime
 * @property {string} WorkspaceDir - Directory holding .devloop/settings.yaml
 * @property {proc.Executor} Executor - nil uses the real command executor
 * @property {utils.Platform} Platform - nil uses utils.CurrentPlatform()
 * @property {[]string} Patterns - Server command line tokens, nil uses the configured ones
 */
type RuntimeOptions struct {
	WorkspaceDir string
	Sink         output.Sink
	Notifier     output.Notifier
	Executor     proc.Executor
	Platform     utils.Platform
	Patterns     []string
}

/**
 * Runtime holds one workspace and every component working on it
 * @description
 * - All components share the same *config.Workspace
 * - Exclusive serializes operations against configuration reloads
 */
type Runtime struct {
	Store     *config.Store
	Workspace *config.Workspace
	Sink      output.Sink
	Notifier  output.Notifier
	Build     *BuildRunner
	Server    *ServerManager
	Resources *ResourceSynchronizer

	workspaceDir string
	startTime    time.Time
	mutex        sync.Mutex
}

func NewRuntime(opts RuntimeOptions) (*Runtime, error) {
	store, err := config.OpenStore(opts.WorkspaceDir)
	if err != nil {
		return nil, err
	}
	if opts.Executor == nil {
		opts.Executor = proc.NewCommandExecutor()
	}
	if opts.Platform == nil {
		opts.Platform = utils.CurrentPlatform()
	}
	if opts.Patterns == nil {
		opts.Patterns = config.Config.Discovery.Patterns
	}
	if opts.Sink == nil {
		opts.Sink = output.NewConsoleSink(nil)
	}
	if opts.Notifier == nil {
		opts.Notifier = output.NewConsoleNotifier(nil)
	}

	ws := store.Workspace()
	return &Runtime{
		Store:        store,
		Workspace:    ws,
		Sink:         opts.Sink,
		Notifier:     opts.Notifier,
		Build:        NewBuildRunner(ws, opts.Executor, opts.Platform, opts.Sink, opts.Notifier),
		Server:       NewServerManager(ws, opts.Executor, opts.Platform, opts.Patterns, opts.Sink, opts.Notifier),
		Resources:    NewResourceSynchronizer(ws, opts.Sink, opts.Notifier),
		workspaceDir: opts.WorkspaceDir,
		startTime:    time.Now(),
	}, nil
}

func (r *Runtime) WorkspaceDir() string {
	return r.workspaceDir
}

func (r *Runtime) StartTime() time.Time {
	return r.startTime
}

// Exclusive runs fn while no other operation or reload is in flight.
func (r *Runtime) Exclusive(fn func() error) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return fn()
}

/**
 * Reload the workspace settings from disk
 * @description
 * - The shared record is updated in place, so every component sees the new values
 */
func (r *Runtime) Reload() error {
	return r.Exclusive(func() error {
		store, err := config.OpenStore(r.workspaceDir)
		if err != nil {
			return err
		}
		r.Store = store
		r.Workspace.CopyFrom(store.Workspace())
		logger.Infof("Workspace settings reloaded from %s", store.SettingsFile())
		return nil
	})
}

// SetSetting changes one setting and refreshes the shared record.
func (r *Runtime) SetSetting(key, value string, scope config.Scope) error {
	return r.Exclusive(func() error {
		if err := r.Store.Set(key, value, scope); err != nil {
			return err
		}
		r.Workspace.CopyFrom(r.Store.Workspace())
		return nil
	})
}

/**
 * Start periodic metrics pushing
 * @param {context.Context} ctx - Stops the loop
 * @description
 * - Disabled when no pushgateway or interval is configured
 */
func (r *Runtime) StartReportMetrics(ctx context.Context, cfg config.MetricsConfig) {
	if cfg.Pushgateway == "" || cfg.Interval <= 0 {
		logger.Info("Metrics reporting is disabled")
		return
	}
	ticker := time.NewTicker(time.Duration(cfg.Interval) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := PushMetrics(cfg.Pushgateway, r.workspaceDir); err != nil {
				logger.Errorf("Metrics reporting error: %v", err)
			}
		}
	}
}

// Shutdown kills the Tomcat started by this runtime, if any.
func (r *Runtime) Shutdown() {
	r.Server.Shutdown()
}
