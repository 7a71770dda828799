package utils

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	gnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	"tomcat-devloop/internal/models"
)

// nativePlatform enumerates processes and sockets through gopsutil instead of parsing tool output.
// Killing and file naming are delegated to the shell platform.
type nativePlatform struct {
	Platform
}

func NewNativePlatform(fallback Platform) Platform {
	return nativePlatform{Platform: fallback}
}

func (nativePlatform) ListProcessesByPort(ctx context.Context, port string) ([]models.DiscoveredProcess, error) {
	want, err := strconv.ParseUint(port, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid port '%s'", port)
	}
	conns, err := gnet.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		return nil, fmt.Errorf("list connections failed: %w", err)
	}
	var found []models.DiscoveredProcess
	for _, c := range conns {
		if c.Status != "LISTEN" || uint64(c.Laddr.Port) != want || c.Pid <= 0 {
			continue
		}
		label := fmt.Sprintf("%s:%d LISTEN", c.Laddr.IP, c.Laddr.Port)
		if p, err := process.NewProcessWithContext(ctx, c.Pid); err == nil {
			if name, err := p.NameWithContext(ctx); err == nil {
				if !strings.Contains(strings.ToLower(name), "java") {
					continue
				}
				label += " " + name
			}
		}
		found = append(found, models.DiscoveredProcess{PID: strconv.Itoa(int(c.Pid)), Label: label})
	}
	return found, nil
}

func (nativePlatform) ListProcessesByPattern(ctx context.Context, patterns []string) ([]models.DiscoveredProcess, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes failed: %w", err)
	}
	self := int32(os.Getpid())
	var found []models.DiscoveredProcess
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		cmdline, err := p.CmdlineWithContext(ctx)
		if err != nil || !strings.Contains(cmdline, "java") || !containsAny(cmdline, patterns) || isSelfCommand(cmdline) {
			continue
		}
		found = append(found, models.DiscoveredProcess{PID: strconv.Itoa(int(p.Pid)), Label: cmdline})
	}
	return found, nil
}
