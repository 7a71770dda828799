package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tomcat-devloop/cmd/root"
	"tomcat-devloop/internal/debugattach"
	"tomcat-devloop/internal/models"
	"tomcat-devloop/internal/rpc"
	"tomcat-devloop/services"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Register the context and start Tomcat in JPDA debug mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startServer(context.Background())
	},
}

/**
 * Start Tomcat through the daemon, or locally when no daemon runs
 * @param {context.Context} ctx - Context of the command
 * @returns {error} Start failure
 */
func startServer(ctx context.Context) error {
	if client := root.DaemonClient(30 * time.Second); client != nil {
		defer client.Close()
		resp, err := client.Post(rpc.APIPrefix+"/server/start", nil)
		if err != nil {
			return err
		}
		if err := root.ResponseError(resp); err != nil {
			return err
		}
		fmt.Println("Tomcat has been started via the devloop daemon")
		return nil
	}
	return startServerLocally(ctx)
}

/**
 * Start Tomcat in the foreground
 * @description
 * - Blocks until Tomcat exits or the user interrupts
 * - On interrupt every Tomcat process is stopped
 */
func startServerLocally(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := root.LocalRuntime()
	if err != nil {
		return err
	}
	if err := rt.Server.Start(ctx); err != nil {
		return err
	}
	if written, err := debugattach.WriteLaunchConfig(rt.WorkspaceDir(), rt.Workspace); err != nil {
		fmt.Printf("Failed to write debug configuration: %v\n", err)
	} else if written {
		fmt.Println("Debug configuration created, attach your debugger to", rt.Workspace.DebugAddress())
	}

	fmt.Println("Tomcat is running, press Ctrl+C to stop")
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// 用户中断后使用新的上下文完成停止流程
			return rt.Server.Stop(context.Background())
		case <-ticker.C:
			if !rt.Server.IsRunning() {
				return exitError(settledStatus(rt.Server))
			}
		}
	}
}

// settledStatus waits until the exit handler has released the process handle.
func settledStatus(sm *services.ServerManager) models.ServerStatus {
	status := sm.Status()
	for i := 0; i < 10 && status.Pid != 0; i++ {
		time.Sleep(100 * time.Millisecond)
		status = sm.Status()
	}
	return status
}

// exitError reports a Tomcat that ended on its own with a non-zero code.
func exitError(status models.ServerStatus) error {
	if status.LastExitCode == nil || *status.LastExitCode == 0 {
		fmt.Println("Tomcat exited")
		return nil
	}
	if status.LastReason != "" {
		return fmt.Errorf("tomcat exited with code %d: %s", *status.LastExitCode, status.LastReason)
	}
	return fmt.Errorf("tomcat exited with code %d", *status.LastExitCode)
}

func init() {
	serverCmd.AddCommand(startCmd)
}
