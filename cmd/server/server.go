package server

import (
	"github.com/spf13/cobra"

	"tomcat-devloop/cmd/root"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Tomcat operations (start/stop/status/context/check/ps)",
	Long: `Tomcat operations. When a daemon (tomcat-devloop serve) runs for this workspace,
start/stop/status are sent to it; otherwise they run in this process.`,
}

const serverExample = `  # start Tomcat in debug mode
  tomcat-devloop server start
  # kill every Tomcat process
  tomcat-devloop server stop`

func init() {
	root.RootCmd.AddCommand(serverCmd)

	serverCmd.Example = serverExample
}
