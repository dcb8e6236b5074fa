package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/airgapctl/cmd/airgapctl/handlers"
)

// GenerateConfig returns the command for writing a starter configuration.
//
// Optional flags:
//
//	--distribution, -d: Distribution to template the config for (default: rke2)
//	--os: OS family of the fleet (default: rhel)
//	--output, -o: File to write; "-" writes to stdout
func GenerateConfig() *cobra.Command {
	var (
		distribution string
		osFamily     string
		output       string
	)

	cmd := &cobra.Command{
		Use:   "generate-config",
		Short: "Write a starter deployment configuration",
		Long: `Write a commented starter configuration for the given distribution
and OS family. Edit the node list and bundle path, then run deploy.

Examples:
  # Print a starter RKE2 config
  airgapctl generate-config

  # Write a K3s config for an Ubuntu fleet
  airgapctl generate-config -d k3s --os ubuntu -o airgapctl.yaml`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.GenerateConfig(distribution, osFamily, output)
		},
	}

	cmd.Flags().StringVarP(&distribution, "distribution", "d", "rke2", "Distribution to template for")
	cmd.Flags().StringVar(&osFamily, "os", "rhel", "OS family of the fleet")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file (\"-\" for stdout)")

	return cmd
}
