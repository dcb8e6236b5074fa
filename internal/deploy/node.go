package deploy

import (
	"fmt"

	"github.com/imamik/airgapctl/internal/config"
	"github.com/imamik/airgapctl/internal/osfamily"
	"github.com/imamik/airgapctl/internal/remote"
)

// configureNode runs the per-node sequence on an open session: stage the
// bundle, install the role configuration, start the service. joinToken is
// empty only for the initializer.
func configureNode(ctx *Context, sess remote.Session, osh osfamily.Handler, node config.Node, role config.Role, joinToken string) error {
	if err := ctx.Distro.PrepareNode(ctx, sess, osh, ctx.Cfg, role); err != nil {
		return fmt.Errorf("preparing %s: %w", node.Hostname, err)
	}
	if err := ctx.Distro.ConfigureService(ctx, sess, osh, ctx.Cfg, node, role, ctx.State.InitializerIP, joinToken); err != nil {
		return fmt.Errorf("configuring %s: %w", node.Hostname, err)
	}
	if err := ctx.Distro.StartService(ctx, sess, role); err != nil {
		return fmt.Errorf("starting service on %s: %w", node.Hostname, err)
	}
	return nil
}

// connect resolves the node's OS handler and opens its session. The caller
// owns the returned session.
func connect(ctx *Context, node config.Node) (remote.Session, osfamily.Handler, error) {
	osh, err := osfamily.Get(ctx.Cfg.OSFor(node))
	if err != nil {
		return nil, nil, err
	}
	sess, err := ctx.Dialer.Dial(ctx, node.IP, node.User, node.SSHKey)
	if err != nil {
		return nil, nil, err
	}
	return sess, osh, nil
}
