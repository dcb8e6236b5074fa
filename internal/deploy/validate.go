package deploy

import (
	"fmt"

	"github.com/imamik/airgapctl/internal/osfamily"
)

// validatingPhase runs pre-flight checks. No remote connection is opened
// here; every failure surfaces before the fleet is touched.
type validatingPhase struct{}

func (validatingPhase) Name() string { return "Validating" }

func (validatingPhase) Run(ctx *Context) error {
	if err := ctx.Distro.ValidateRequirements(ctx.Cfg); err != nil {
		return fmt.Errorf("pre-flight check for %s: %w", ctx.Distro.Name(), err)
	}

	// Every node's OS family must resolve before any session is opened.
	for _, n := range ctx.Cfg.Nodes.Servers {
		if _, err := osfamily.Get(ctx.Cfg.OSFor(n)); err != nil {
			return fmt.Errorf("node %s: %w", n.Hostname, err)
		}
	}
	for _, n := range ctx.Cfg.Nodes.Agents {
		if _, err := osfamily.Get(ctx.Cfg.OSFor(n)); err != nil {
			return fmt.Errorf("node %s: %w", n.Hostname, err)
		}
	}
	return nil
}
