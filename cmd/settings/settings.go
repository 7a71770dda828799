package settings

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tomcat-devloop/cmd/root"
	"tomcat-devloop/internal/config"
	"tomcat-devloop/internal/env"
	"tomcat-devloop/internal/models"
	"tomcat-devloop/internal/rpc"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the workspace settings",
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective workspace settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.OpenStore(env.WorkspaceDir)
		if err != nil {
			return err
		}
		fmt.Printf("# %s\n", store.SettingsFile())
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(store.Workspace())
	},
}

var (
	scope string
)

var setCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one workspace setting",
	Long: `Change one workspace setting. KEY is one of PROJECT_PATH, JAVA_HOME, MAVEN_HOME,
TOMCAT_HOME, SPRING_PROFILES_ACTIVE, JPDA_ADDRESS, APP_CONTEXT.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSetting(args[0], args[1], config.Scope(scope))
	},
}

/**
 * Change a setting through the daemon, or directly in the settings file
 * @description
 * - Going through the daemon refreshes the record shared by its components
 * - Session scope is only meaningful for a running daemon
 */
func setSetting(key, value string, scope config.Scope) error {
	if client := root.DaemonClient(5 * time.Second); client != nil {
		defer client.Close()
		resp, err := client.Post(rpc.APIPrefix+"/settings", models.SettingsRequest{
			Key:   key,
			Value: value,
			Scope: string(scope),
		})
		if err != nil {
			return err
		}
		return root.ResponseError(resp)
	}
	if scope == config.ScopeSession {
		return fmt.Errorf("session scope requires a running daemon")
	}
	store, err := config.OpenStore(env.WorkspaceDir)
	if err != nil {
		return err
	}
	return store.Set(key, value, config.ScopeWorkspace)
}

func init() {
	root.RootCmd.AddCommand(configCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(setCmd)
	setCmd.Flags().StringVarP(&scope, "scope", "s", string(config.ScopeWorkspace), "workspace (persisted) or session (daemon memory only)")
}
