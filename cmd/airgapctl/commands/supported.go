package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/airgapctl/cmd/airgapctl/handlers"
)

// Supported returns the command listing deployable distributions and OS
// families.
func Supported() *cobra.Command {
	return &cobra.Command{
		Use:   "supported",
		Short: "List supported distributions and OS families",
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Supported()
		},
	}
}
