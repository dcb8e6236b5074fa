// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing and flag binding. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the airgapctl CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "airgapctl",
		Short: "Deploy Kubernetes distributions onto airgapped nodes over SSH",
	}

	cmd.AddCommand(Deploy())
	cmd.AddCommand(Uninstall())
	cmd.AddCommand(GenerateConfig())
	cmd.AddCommand(Supported())
	cmd.AddCommand(Version())

	return cmd
}
