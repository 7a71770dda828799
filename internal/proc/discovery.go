package proc

import (
	"context"

	"golang.org/x/sync/errgroup"

	"tomcat-devloop/internal/logger"
	"tomcat-devloop/internal/models"
	"tomcat-devloop/internal/utils"
)

// Discovery finds server JVMs by listening port and by command-line tokens.
type Discovery struct {
	platform utils.Platform
	patterns []string
}

func NewDiscovery(platform utils.Platform, patterns []string) *Discovery {
	return &Discovery{platform: platform, patterns: patterns}
}

/**
 * Find server processes
 * @param {context.Context} ctx - Bounds the OS queries
 * @param {string} portHint - Listening port to look for, empty skips the port strategy
 * @returns {[]models.DiscoveredProcess} Duplicate-free list, port matches first
 * @description
 * - Both strategies run concurrently
 * - A failing strategy contributes nothing and is logged
 */
func (d *Discovery) FindServerProcesses(ctx context.Context, portHint string) []models.DiscoveredProcess {
	var byPort, byPattern []models.DiscoveredProcess
	var g errgroup.Group
	if portHint != "" {
		g.Go(func() error {
			found, err := d.platform.ListProcessesByPort(ctx, portHint)
			if err != nil {
				logger.Warnf("Port discovery on %s failed: %v", portHint, err)
				return nil
			}
			byPort = found
			return nil
		})
	}
	g.Go(func() error {
		found, err := d.platform.ListProcessesByPattern(ctx, d.patterns)
		if err != nil {
			logger.Warnf("Pattern discovery %v failed: %v", d.patterns, err)
			return nil
		}
		byPattern = found
		return nil
	})
	g.Wait()

	found := Dedupe(byPort, byPattern)
	logger.Debugf("Discovered %d server process(es)", len(found))
	return found
}

// Dedupe concatenates the lists keeping the first entry for each PID.
func Dedupe(lists ...[]models.DiscoveredProcess) []models.DiscoveredProcess {
	seen := make(map[string]bool)
	out := []models.DiscoveredProcess{}
	for _, list := range lists {
		for _, p := range list {
			if p.PID == "" || seen[p.PID] {
				continue
			}
			seen[p.PID] = true
			out = append(out, p)
		}
	}
	return out
}
