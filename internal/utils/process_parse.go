package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"tomcat-devloop/internal/models"
)

var (
	posixNetstatPid   = regexp.MustCompile(`(\d+)/java`)
	windowsNetstatPid = regexp.MustCompile(`\s+(\d+)$`)
)

// hasPort reports whether line contains ":<port>" not followed by another digit.
func hasPort(line, port string) bool {
	token := ":" + port
	for rest := line; ; {
		i := strings.Index(rest, token)
		if i < 0 {
			return false
		}
		end := i + len(token)
		if end == len(rest) || rest[end] < '0' || rest[end] > '9' {
			return true
		}
		rest = rest[end:]
	}
}

/**
 * Parse `netstat -tlnp` output
 * @param {string} out - Command output
 * @param {string} port - Listening port to match
 * @returns {[]models.DiscoveredProcess} One entry per matching line owned by a java process
 * @example
 * tcp6  0  0 :::8000  :::*  LISTEN  4242/java   => {PID: "4242"}
 */
func ParseNetstatPosix(out, port string) []models.DiscoveredProcess {
	var found []models.DiscoveredProcess
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !hasPort(line, port) {
			continue
		}
		m := posixNetstatPid.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		found = append(found, models.DiscoveredProcess{PID: m[1], Label: line})
	}
	return found
}

// ParseNetstatWindows 解析 `netstat -ano` 输出，PID为行尾数字列
func ParseNetstatWindows(out, port string) []models.DiscoveredProcess {
	var found []models.DiscoveredProcess
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r \t")
		if strings.TrimSpace(line) == "" || !hasPort(line, port) {
			continue
		}
		m := windowsNetstatPid.FindStringSubmatch(line)
		if m == nil || m[1] == "0" {
			continue
		}
		found = append(found, models.DiscoveredProcess{PID: m[1], Label: strings.TrimSpace(line)})
	}
	return found
}

// selfNames are executable basenames of this tool; their processes are never server candidates.
var selfNames = func() []string {
	names := []string{"tomcat-devloop"}
	if exe, err := os.Executable(); err == nil {
		names = append(names, commandBase(exe))
	}
	return names
}()

func commandBase(cmd string) string {
	cmd = strings.Trim(cmd, `"'`)
	base := filepath.Base(strings.ReplaceAll(cmd, `\`, "/"))
	return strings.TrimSuffix(strings.ToLower(base), ".exe")
}

// isSelfCommand reports whether the first token of a command line runs this tool.
func isSelfCommand(cmdline string) bool {
	cmdline = strings.TrimSpace(cmdline)
	var first string
	if strings.HasPrefix(cmdline, `"`) {
		if end := strings.Index(cmdline[1:], `"`); end >= 0 {
			first = cmdline[1 : end+1]
		}
	} else if fields := strings.Fields(cmdline); len(fields) > 0 {
		first = fields[0]
	}
	if first == "" {
		return false
	}
	base := commandBase(first)
	for _, name := range selfNames {
		if base == name {
			return true
		}
	}
	return false
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}

/**
 * Parse `ps aux` output into server JVM processes
 * @param {string} out - Command output
 * @param {[]string} patterns - Case-sensitive tokens, one must appear in the line
 * @param {string} self - Own pid, never returned
 * @description
 * - PID is the second column
 * - The line must mention java and one pattern
 * - grep lines and this tool's own processes are skipped
 */
func ParsePsAux(out string, patterns []string, self string) []models.DiscoveredProcess {
	var found []models.DiscoveredProcess
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		pid := fields[1]
		if _, err := strconv.Atoi(pid); err != nil || pid == self {
			continue
		}
		if !strings.Contains(line, "java") || !containsAny(line, patterns) {
			continue
		}
		label := strings.TrimSpace(line)
		if len(fields) > 10 {
			if cmd := fields[10]; cmd == "grep" || strings.HasSuffix(cmd, "/grep") || isSelfCommand(cmd) {
				continue
			}
			label = strings.Join(fields[10:], " ")
		}
		found = append(found, models.DiscoveredProcess{PID: pid, Label: label})
	}
	return found
}

/**
 * Parse `wmic ... get ProcessId,CommandLine /format:csv` output
 * @description
 * - Columns are Node,CommandLine,ProcessId; the command line may itself contain commas
 * - PID is the last column
 */
func ParseWmicCSV(out string, patterns []string, self string) []models.DiscoveredProcess {
	var found []models.DiscoveredProcess
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		last := strings.LastIndex(line, ",")
		if last < 0 {
			continue
		}
		pid := strings.TrimSpace(line[last+1:])
		if _, err := strconv.Atoi(pid); err != nil || pid == self {
			continue
		}
		cmdline := line[:last]
		if first := strings.Index(cmdline, ","); first >= 0 {
			cmdline = cmdline[first+1:]
		}
		if !containsAny(cmdline, patterns) || isSelfCommand(cmdline) {
			continue
		}
		found = append(found, models.DiscoveredProcess{PID: pid, Label: cmdline})
	}
	return found
}
