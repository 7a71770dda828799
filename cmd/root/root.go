package root

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"tomcat-devloop/internal/env"
)

var SoftwareVer = ""
var BuildTime = ""
var BuildTag = ""
var BuildCommitId = ""

var RootCmd = &cobra.Command{
	Use:   "tomcat-devloop",
	Short: "Local build-deploy-debug loop for Maven web applications on Tomcat",
	Long: `tomcat-devloop builds a Maven web module, deploys the exploded war into Tomcat
through a context file, runs Tomcat in JPDA debug mode and pushes static resources
without a redeploy.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if workspaceDir != "" {
			if abs, err := filepath.Abs(workspaceDir); err == nil {
				env.WorkspaceDir = abs
			} else {
				env.WorkspaceDir = workspaceDir
			}
		}
	},
}

var workspaceDir string

func init() {
	RootCmd.PersistentFlags().StringVarP(&workspaceDir, "workspace", "w", "", "Workspace directory (default: $DEVLOOP_WORKSPACE or current directory)")
}
