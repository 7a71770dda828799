//go:build windows

package utils

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/windows"

	"tomcat-devloop/internal/models"
)

// 进程仍在运行时 GetExitCodeProcess 返回的退出码
const stillActive = 259

// SetNewPG 设置进程属性，子进程使用独立的进程组
// Windows系统实现
func SetNewPG(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// KillProcessGroup 结束进程树
func KillProcessGroup(pid int) error {
	return exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}

// IsProcessRunning reports false without error once the pid no longer exists.
func IsProcessRunning(pid int) (bool, error) {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		if errors.Is(err, windows.ERROR_INVALID_PARAMETER) {
			return false, nil
		}
		return false, fmt.Errorf("open process %d: %w", pid, err)
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false, fmt.Errorf("exit code of process %d: %w", pid, err)
	}
	return code == stillActive, nil
}

type windowsPlatform struct{}

func newShellPlatform() Platform {
	return windowsPlatform{}
}

// ListProcessesByPort 运行 `netstat -ano | findstr :<port>`，PID取行尾数字列
func (windowsPlatform) ListProcessesByPort(ctx context.Context, port string) ([]models.DiscoveredProcess, error) {
	if _, err := strconv.Atoi(port); err != nil {
		return nil, fmt.Errorf("invalid port '%s'", port)
	}
	out, err := exec.CommandContext(ctx, "cmd", "/c", fmt.Sprintf("netstat -ano | findstr :%s", port)).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("netstat failed: %w", err)
	}
	return ParseNetstatWindows(string(out), port), nil
}

// ListProcessesByPattern 通过wmic列出java.exe的命令行
func (windowsPlatform) ListProcessesByPattern(ctx context.Context, patterns []string) ([]models.DiscoveredProcess, error) {
	out, err := exec.CommandContext(ctx, "wmic", "process", "where", "name='java.exe'",
		"get", "ProcessId,CommandLine", "/format:csv").Output()
	if err != nil {
		return nil, fmt.Errorf("wmic failed: %w", err)
	}
	return ParseWmicCSV(string(out), patterns, selfPid()), nil
}

// KillProcess 结束单个进程, 已经退出的进程视为成功
func (windowsPlatform) KillProcess(ctx context.Context, pid string) error {
	n, err := strconv.Atoi(pid)
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid pid '%s'", pid)
	}
	if running, err := IsProcessRunning(n); err == nil && !running {
		return nil
	}
	if out, err := exec.CommandContext(ctx, "taskkill", "/F", "/PID", pid).CombinedOutput(); err != nil {
		return fmt.Errorf("taskkill failed: %v: %s", err, string(out))
	}
	return nil
}

func (windowsPlatform) ResolveScriptName(base string) string {
	return base + ".bat"
}

func (windowsPlatform) ExecutableName(base string) string {
	return base + ".cmd"
}

func (windowsPlatform) ShellCommand(script string, args ...string) (string, []string) {
	return "cmd", append([]string{"/c", script}, args...)
}
