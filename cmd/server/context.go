package server

import (
	"github.com/spf13/cobra"

	"tomcat-devloop/cmd/root"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Write the Tomcat context file pointing at the exploded war",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := root.LocalRuntime()
		if err != nil {
			return err
		}
		_, err = rt.Server.RegisterContext()
		return err
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check JAVA_HOME, MAVEN_HOME and TOMCAT_HOME",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := root.LocalRuntime()
		if err != nil {
			return err
		}
		return rt.Server.CheckEnvironment()
	},
}

func init() {
	serverCmd.AddCommand(contextCmd)
	serverCmd.AddCommand(checkCmd)
}
