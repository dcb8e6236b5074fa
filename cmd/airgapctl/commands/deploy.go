package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/airgapctl/cmd/airgapctl/handlers"
)

// Deploy returns the command for deploying a cluster onto the fleet.
//
// The first configured server initializes the cluster; remaining servers
// and agents join it using the token retrieved from the initializer.
//
// Optional flags:
//
//	--config, -c: Path to deployment configuration YAML file (default: airgapctl.yaml)
//	--extra-tools: Additional bundle binaries to install on the first server
//	--dry-run: Print the node processing plan without connecting anywhere
//	--verbose, -v: Enable debug logging
func Deploy() *cobra.Command {
	var (
		configPath string
		extraTools []string
		dryRun     bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the distribution onto all configured nodes",
		Long: `Deploy a Kubernetes distribution onto the configured fleet.

The airgap bundle is staged on every node over SSH/SFTP, packages and
container images are installed from it, and the cluster is bootstrapped:
the first server initializes, the rest join.

Examples:
  # Deploy using airgapctl.yaml in the current directory
  airgapctl deploy

  # Deploy a specific configuration
  airgapctl deploy -c production.yaml

  # Show the processing order without touching any node
  airgapctl deploy -c production.yaml --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Deploy(cmd.Context(), configPath, extraTools, dryRun, verbose)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "airgapctl.yaml", "Path to configuration file")
	cmd.Flags().StringSliceVar(&extraTools, "extra-tools", nil, "Additional bundle binaries for the first server")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the node plan and exit")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}
