package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/airgapctl/cmd/airgapctl/handlers"
)

// Uninstall returns the command for removing the distribution from the fleet.
//
// Optional flags:
//
//	--config, -c: Path to deployment configuration YAML file (default: airgapctl.yaml)
//	--force: Keep going when a node fails or is unreachable
//	--verbose, -v: Enable debug logging
func Uninstall() *cobra.Command {
	var (
		configPath string
		force      bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the distribution from all configured nodes",
		Long: `Stop the distribution's services and remove its packages, state
directories and firewall rules from every configured node.

Examples:
  # Uninstall from the fleet described by airgapctl.yaml
  airgapctl uninstall

  # Keep going even if some nodes are unreachable
  airgapctl uninstall --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Uninstall(cmd.Context(), configPath, force, verbose)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "airgapctl.yaml", "Path to configuration file")
	cmd.Flags().BoolVar(&force, "force", false, "Continue past per-node failures")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}
