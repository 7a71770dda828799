package server

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tomcat-devloop/cmd/root"
	"tomcat-devloop/internal/rpc"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Kill every Tomcat process and verify none is left",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer(context.Background())
	},
}

func stopServer(ctx context.Context) error {
	if client := root.DaemonClient(30 * time.Second); client != nil {
		defer client.Close()
		resp, err := client.Post(rpc.APIPrefix+"/server/stop", nil)
		if err != nil {
			return err
		}
		if err := root.ResponseError(resp); err != nil {
			return err
		}
		fmt.Println("Tomcat has been stopped via the devloop daemon")
		return nil
	}

	rt, err := root.LocalRuntime()
	if err != nil {
		return err
	}
	return rt.Server.Stop(ctx)
}

func init() {
	serverCmd.AddCommand(stopCmd)
}
