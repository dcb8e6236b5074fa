package handlers

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"

	"github.com/imamik/airgapctl/internal/config"
	"github.com/imamik/airgapctl/internal/distro"
	"github.com/imamik/airgapctl/internal/osfamily"
)

// writeFile writes data to a file (for testing injection).
var writeFile = os.WriteFile

// GenerateConfig writes a starter configuration for the given distribution
// and OS family to output, or to stdout when output is "-".
func GenerateConfig(distribution, osFamily, output string) error {
	if _, err := distro.Get(distribution, logr.Discard()); err != nil {
		return err
	}
	if _, err := osfamily.Get(osFamily); err != nil {
		return err
	}

	data, err := config.MarshalSample(distribution, osFamily)
	if err != nil {
		return err
	}

	if output == "-" {
		fmt.Fprint(out, string(data))
		return nil
	}
	if err := writeFile(output, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Fprintf(out, "wrote %s\n", output)
	return nil
}
