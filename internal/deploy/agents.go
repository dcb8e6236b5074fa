package deploy

import (
	"fmt"

	"github.com/imamik/airgapctl/internal/config"
)

// joiningAgentsPhase processes agent nodes in configured order. GPU-flagged
// agents get a nested provisioning step on the same session, recorded
// independently of the join outcome.
type joiningAgentsPhase struct{}

func (joiningAgentsPhase) Name() string { return "JoiningAgents" }

func (joiningAgentsPhase) Run(ctx *Context) error {
	for _, node := range ctx.Cfg.Nodes.Agents {
		nr := processAgent(ctx, node)
		ctx.Result.Record(nr)

		if nr.Err != nil && ctx.Cfg.FailFastEnabled() {
			return fmt.Errorf("agent %s failed to join: %w", node.Hostname, nr.Err)
		}
	}
	return nil
}

func processAgent(ctx *Context, node config.Node) NodeResult {
	nr := NodeResult{Hostname: node.Hostname, IP: node.IP, Role: config.RoleAgent}

	sess, osh, err := connect(ctx, node)
	if err != nil {
		nr.Err = err
		return nr
	}
	defer func() { _ = sess.Close() }()

	if err := configureNode(ctx, sess, osh, node, config.RoleAgent, ctx.State.JoinToken); err != nil {
		nr.Err = err
		return nr
	}

	if node.GPU {
		nr.GPUProvisioned = true
		if err := ctx.Distro.ProvisionGPU(ctx, sess, osh, ctx.Cfg); err != nil {
			// A GPU failure does not undo a completed join; it is
			// reported alongside it.
			nr.GPUErr = err
			ctx.Log.Error(err, "gpu provisioning failed", "host", node.Hostname)
		}
	}
	return nr
}
