package proc

import (
	"context"
	"fmt"
	"io"

	"tomcat-devloop/internal/logger"
	"tomcat-devloop/internal/models"
	"tomcat-devloop/internal/utils"
)

// Terminator force-kills discovered processes. It never retries or escalates.
type Terminator struct {
	platform utils.Platform
}

func NewTerminator(platform utils.Platform) *Terminator {
	return &Terminator{platform: platform}
}

// Kill is best-effort; the result only feeds metrics and logs.
func (t *Terminator) Kill(ctx context.Context, p models.DiscoveredProcess, sink io.Writer) bool {
	if err := t.platform.KillProcess(ctx, p.PID); err != nil {
		logger.Warnf("Failed to kill process %s: %v", p.PID, err)
		if sink != nil {
			fmt.Fprintf(sink, "Failed to kill process %s: %v\n", p.PID, err)
		}
		return false
	}
	logger.Infof("Killed process %s (%s)", p.PID, p.Label)
	if sink != nil {
		fmt.Fprintf(sink, "Killed process %s\n", p.PID)
	}
	return true
}
