package build

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"tomcat-devloop/cmd/root"
	"tomcat-devloop/services"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Maven build operations (compile/clean/package/rebuild)",
	Long: `Run a Maven verb in PROJECT_PATH. Each verb is limited to five minutes.
rebuild runs clean and then package war:exploded for APP_CONTEXT.`,
}

const buildExample = `  # recompile classes for hotswap
  tomcat-devloop build compile
  # clean and rebuild the exploded war
  tomcat-devloop build rebuild`

/**
 * Run a build verb in the local process
 * @param {services.Verb} verb - Verb to run
 * @returns {error} Build failure
 * @description
 * - Ctrl+C cancels the running Maven process
 */
func runVerb(verb services.Verb) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rt, err := root.LocalRuntime()
	if err != nil {
		return err
	}
	return rt.Build.Run(ctx, verb)
}

func verbCommand(verb services.Verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(verb),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerb(verb)
		},
	}
}

func init() {
	root.RootCmd.AddCommand(buildCmd)
	buildCmd.Example = buildExample

	buildCmd.AddCommand(verbCommand(services.VerbCompile, "Compile classes (mvn compile)"))
	buildCmd.AddCommand(verbCommand(services.VerbClean, "Clean the project (mvn clean)"))
	buildCmd.AddCommand(verbCommand(services.VerbPackage, "Package the exploded war of APP_CONTEXT"))
	buildCmd.AddCommand(verbCommand(services.VerbRebuild, "Clean, then package the exploded war"))
}
