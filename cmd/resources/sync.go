package resources

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tomcat-devloop/cmd/root"
	"tomcat-devloop/internal/models"
	"tomcat-devloop/internal/rpc"
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Static resources of the web module",
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy static resources into the exploded war without a rebuild",
	Long: `Copy src/main/webapp of the web module into the exploded war. WEB-INF/lib,
WEB-INF/classes and WEB-INF/web.xml are never touched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := syncResources(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("%d files copied, %d directories created into %s\n",
			report.FilesCopied, report.DirsCreated, report.Target)
		return nil
	},
}

// syncResources 优先交由守护进程执行，保证与其他操作串行
func syncResources(ctx context.Context) (models.SyncReport, error) {
	var report models.SyncReport
	if client := root.DaemonClient(time.Minute); client != nil {
		defer client.Close()
		resp, err := client.Post(rpc.APIPrefix+"/resources/sync", nil)
		if err != nil {
			return report, err
		}
		if err := root.ResponseError(resp); err != nil {
			return report, err
		}
		return report, resp.Decode(&report)
	}

	rt, err := root.LocalRuntime()
	if err != nil {
		return report, err
	}
	return rt.Resources.Sync(ctx)
}

func init() {
	root.RootCmd.AddCommand(resourcesCmd)
	resourcesCmd.AddCommand(syncCmd)
}
