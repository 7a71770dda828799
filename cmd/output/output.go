package output

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tomcat-devloop/cmd/root"
	"tomcat-devloop/internal/models"
	"tomcat-devloop/internal/rpc"
)

var (
	follow bool
	offset int
)

var outputCmd = &cobra.Command{
	Use:   "output",
	Short: "Print the output stream of the devloop daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := root.DaemonClient(5 * time.Second)
		if client == nil {
			return fmt.Errorf("no devloop daemon serves workspace, run 'tomcat-devloop serve' first")
		}
		defer client.Close()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigs)

		next := offset
		for {
			resp, err := client.Get(rpc.APIPrefix+"/output", map[string]interface{}{"offset": next})
			if err != nil {
				return err
			}
			if err := root.ResponseError(resp); err != nil {
				return err
			}
			var out models.OutputResponse
			if err := resp.Decode(&out); err != nil {
				return err
			}
			for _, line := range out.Lines {
				fmt.Println(line)
			}
			next = out.Next
			if !follow {
				return nil
			}
			select {
			case <-sigs:
				return nil
			case <-time.After(500 * time.Millisecond):
			}
		}
	},
}

func init() {
	root.RootCmd.AddCommand(outputCmd)
	outputCmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep polling for new output")
	outputCmd.Flags().IntVar(&offset, "offset", 0, "First line number to print")
}
