//go:build !windows

package utils

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"

	"tomcat-devloop/internal/models"
)

// SetNewPG 设置进程属性，子进程使用独立的进程组，方便整组结束
func SetNewPG(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// KillProcessGroup 强制结束整个进程组(pgid == pid)
func KillProcessGroup(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil && err != unix.ESRCH {
		return unix.Kill(pid, unix.SIGKILL)
	}
	return nil
}

// IsProcessRunning 使用信号0检查进程是否存在, EPERM 说明进程存在但属于其他用户
func IsProcessRunning(pid int) (bool, error) {
	err := unix.Kill(pid, 0)
	if err == nil || err == unix.EPERM {
		return true, nil
	}
	if err == unix.ESRCH {
		return false, nil
	}
	return false, err
}

type posixPlatform struct{}

func newShellPlatform() Platform {
	return posixPlatform{}
}

/**
 * List processes listening on port via netstat
 * @param {string} port - TCP port
 * @returns {[]models.DiscoveredProcess} Java processes owning a matching socket
 * @description
 * - Runs `netstat -tlnp 2>/dev/null | grep :<port>`
 * - grep exits 1 when nothing matches, which is an empty result rather than an error
 */
func (posixPlatform) ListProcessesByPort(ctx context.Context, port string) ([]models.DiscoveredProcess, error) {
	if _, err := strconv.Atoi(port); err != nil {
		return nil, fmt.Errorf("invalid port '%s'", port)
	}
	out, err := runShell(ctx, fmt.Sprintf("netstat -tlnp 2>/dev/null | grep :%s", port))
	if err != nil {
		return nil, err
	}
	return ParseNetstatPosix(out, port), nil
}

func (posixPlatform) ListProcessesByPattern(ctx context.Context, patterns []string) ([]models.DiscoveredProcess, error) {
	out, err := exec.CommandContext(ctx, "ps", "aux").Output()
	if err != nil {
		return nil, fmt.Errorf("ps aux failed: %w", err)
	}
	return ParsePsAux(string(out), patterns, selfPid()), nil
}

/**
 * Force kill a process with SIGKILL
 * @param {string} pid - Process id
 * @returns {error} Invalid pid or signal error
 * @description
 * - A pid that is already gone counts as killed
 */
func (posixPlatform) KillProcess(_ context.Context, pid string) error {
	n, err := strconv.Atoi(pid)
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid pid '%s'", pid)
	}
	if running, err := IsProcessRunning(n); err == nil && !running {
		return nil
	}
	if err := unix.Kill(n, unix.SIGKILL); err != nil && err != unix.ESRCH {
		return err
	}
	return nil
}

func (posixPlatform) ResolveScriptName(base string) string {
	return base + ".sh"
}

func (posixPlatform) ExecutableName(base string) string {
	return base
}

func (posixPlatform) ShellCommand(script string, args ...string) (string, []string) {
	return "bash", append([]string{script}, args...)
}

func runShell(ctx context.Context, line string) (string, error) {
	out, err := exec.CommandContext(ctx, "sh", "-c", line).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", fmt.Errorf("'%s' failed: %w", line, err)
	}
	return string(out), nil
}
