package server

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tomcat-devloop/cmd/root"
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List Tomcat processes found by port and command line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := root.LocalRuntime()
		if err != nil {
			return err
		}
		found := rt.Server.Processes(context.Background())
		if len(found) == 0 {
			fmt.Println("No Tomcat process found")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PID\tPROCESS")
		for _, p := range found {
			fmt.Fprintf(w, "%s\t%s\n", p.PID, p.Label)
		}
		return w.Flush()
	},
}

func init() {
	serverCmd.AddCommand(psCmd)
}
