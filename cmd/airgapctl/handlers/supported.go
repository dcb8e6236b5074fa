package handlers

import (
	"fmt"
	"sort"

	"github.com/imamik/airgapctl/internal/distro"
	"github.com/imamik/airgapctl/internal/osfamily"
)

// Supported prints the deployable distributions and OS families.
func Supported() error {
	distros := distro.Supported()
	families := osfamily.Supported()
	sort.Strings(distros)
	sort.Strings(families)

	fmt.Fprintln(out, "distributions:")
	for _, d := range distros {
		fmt.Fprintf(out, "  - %s\n", d)
	}
	fmt.Fprintln(out, "os families:")
	for _, f := range families {
		fmt.Fprintf(out, "  - %s\n", f)
	}
	return nil
}
