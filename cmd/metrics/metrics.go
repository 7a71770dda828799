package metrics

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tomcat-devloop/cmd/root"
	"tomcat-devloop/internal/config"
	"tomcat-devloop/internal/env"
	"tomcat-devloop/internal/models"
	"tomcat-devloop/internal/rpc"
	"tomcat-devloop/services"
)

var (
	pushGatewayAddr string
)

func init() {
	root.RootCmd.AddCommand(Cmd)
	Cmd.AddCommand(pushCmd)
	pushCmd.Flags().StringVarP(&pushGatewayAddr, "addr", "a", "", "Pushgateway地址")
}

var Cmd = &cobra.Command{
	Use:   "metrics",
	Short: "Prometheus指标",
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "上报Prometheus指标",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if pushGatewayAddr == "" {
			pushGatewayAddr = config.Config.Metrics.Pushgateway
		}
		// 守护进程持有完整的累计指标，优先由其推送
		if client := root.DaemonClient(30 * time.Second); client != nil {
			defer client.Close()
			resp, err := client.Post(rpc.APIPrefix+"/metrics/push", models.PushRequest{Addr: pushGatewayAddr})
			if err != nil {
				return err
			}
			return root.ResponseError(resp)
		}
		if err := services.PushMetrics(pushGatewayAddr, env.WorkspaceDir); err != nil {
			return fmt.Errorf("push metrics failed: %w, check that the pushgateway address is reachable", err)
		}
		return nil
	},
}
