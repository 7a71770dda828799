package utils

import (
	"context"
	"os"
	"strconv"
	"sync"

	"tomcat-devloop/internal/config"
	"tomcat-devloop/internal/models"
)

/**
 * Platform isolates every OS-specific process operation
 * @description
 * - ListProcessesByPort returns processes listening on a TCP port
 * - ListProcessesByPattern returns java processes whose command line contains one of the tokens
 * - KillProcess force-terminates a process, no escalation
 * - ResolveScriptName/ExecutableName give the platform file name of a script or tool
 * - ShellCommand wraps a script invocation in the platform shell
 */
type Platform interface {
	ListProcessesByPort(ctx context.Context, port string) ([]models.DiscoveredProcess, error)
	ListProcessesByPattern(ctx context.Context, patterns []string) ([]models.DiscoveredProcess, error)
	KillProcess(ctx context.Context, pid string) error
	ResolveScriptName(base string) string
	ExecutableName(base string) string
	ShellCommand(script string, args ...string) (string, []string)
}

var (
	currentPlatform Platform
	platformOnce    sync.Once
)

// CurrentPlatform 按配置选择一次平台实现
func CurrentPlatform() Platform {
	platformOnce.Do(func() {
		currentPlatform = NewPlatform(config.Config.Discovery.Backend)
	})
	return currentPlatform
}

// NewPlatform returns the gopsutil backend for "native", the shell backend otherwise.
func NewPlatform(backend string) Platform {
	if backend == config.DiscoveryNative {
		return NewNativePlatform(newShellPlatform())
	}
	return newShellPlatform()
}

func selfPid() string {
	return strconv.Itoa(os.Getpid())
}
