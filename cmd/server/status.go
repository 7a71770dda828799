package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tomcat-devloop/cmd/root"
	"tomcat-devloop/internal/models"
	"tomcat-devloop/internal/rpc"
)

var (
	statusJSON bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the Tomcat state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := serverStatus()
		if err != nil {
			return err
		}
		printStatus(status)
		return nil
	},
}

// serverStatus 优先查询守护进程，否则返回本地探测结果
func serverStatus() (models.ServerStatus, error) {
	var status models.ServerStatus
	if client := root.DaemonClient(5 * time.Second); client != nil {
		defer client.Close()
		resp, err := client.Get(rpc.APIPrefix+"/server/status", nil)
		if err != nil {
			return status, err
		}
		if err := root.ResponseError(resp); err != nil {
			return status, err
		}
		return status, resp.Decode(&status)
	}

	rt, err := root.LocalRuntime()
	if err != nil {
		return status, err
	}
	status = rt.Server.Status()
	if status.State == models.StateStopped && status.DebugPortOpen {
		// 本进程未托管，但调试端口可连接，说明有外部启动的实例
		status.LastReason = "not managed by this process"
	}
	return status, nil
}

func printStatus(status models.ServerStatus) {
	if statusJSON {
		data, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(data))
		return
	}
	fmt.Printf("State:         %s\n", status.State)
	if status.Pid > 0 {
		fmt.Printf("PID:           %d\n", status.Pid)
	}
	if status.StartTime != nil {
		fmt.Printf("Started:       %s\n", status.StartTime.Format(time.RFC3339))
	}
	if status.LastExitCode != nil {
		fmt.Printf("Last exit:     %d\n", *status.LastExitCode)
	}
	if status.LastReason != "" {
		fmt.Printf("Reason:        %s\n", status.LastReason)
	}
	fmt.Printf("Debug address: %s (open: %t)\n", status.DebugAddress, status.DebugPortOpen)
	if status.ContextFile != "" {
		fmt.Printf("Context file:  %s\n", status.ContextFile)
	}
}

func init() {
	serverCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the status as JSON")
}
