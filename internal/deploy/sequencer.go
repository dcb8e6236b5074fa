package deploy

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/airgapctl/internal/config"
	"github.com/imamik/airgapctl/internal/distro"
	"github.com/imamik/airgapctl/internal/remote"
)

// RunOption adjusts sequencer behavior.
type RunOption func(*Context)

// WithTokenRetry bounds the wait for the initializer's join credential.
func WithTokenRetry(attempts int, delay time.Duration) RunOption {
	return func(c *Context) {
		c.TokenAttempts = attempts
		c.TokenDelay = delay
	}
}

// Run executes the full bootstrap sequence:
//
//	Validating -> InitializingFirstServer -> JoiningServers ->
//	JoiningAgents -> HealthChecking
//
// The returned result is populated even when err is non-nil, so callers
// can report per-node outcomes for a failed run.
func Run(ctx context.Context, cfg *config.Config, dialer remote.Dialer, log logr.Logger, opts ...RunOption) (*Result, error) {
	handler, err := distro.Get(cfg.Cluster.Distribution, log)
	if err != nil {
		return NewResult(), err
	}
	return RunWithHandler(ctx, cfg, dialer, handler, log, opts...)
}

// RunWithHandler runs the sequence with an explicit distribution handler.
func RunWithHandler(ctx context.Context, cfg *config.Config, dialer remote.Dialer, handler distro.Handler, log logr.Logger, opts ...RunOption) (*Result, error) {
	c := NewContext(ctx, cfg, dialer, handler, log)
	for _, opt := range opts {
		opt(c)
	}

	phases := []Phase{
		validatingPhase{},
		initializingPhase{},
		joiningServersPhase{},
		joiningAgentsPhase{},
		healthCheckingPhase{},
	}

	if err := runPhases(c, phases); err != nil {
		return c.Result, err
	}
	return c.Result, nil
}

// Uninstall removes the distribution from every node in the fleet. Node
// order carries no dependency; each node is handled independently. Without
// force the first failure aborts, with force every node is attempted and
// failures are only recorded.
func Uninstall(ctx context.Context, cfg *config.Config, dialer remote.Dialer, log logr.Logger, force bool) (*Result, error) {
	handler, err := distro.Get(cfg.Cluster.Distribution, log)
	if err != nil {
		return NewResult(), err
	}
	return UninstallWithHandler(ctx, cfg, dialer, handler, log, force)
}

// UninstallWithHandler removes the distribution using an explicit handler.
func UninstallWithHandler(ctx context.Context, cfg *config.Config, dialer remote.Dialer, handler distro.Handler, log logr.Logger, force bool) (*Result, error) {
	c := NewContext(ctx, cfg, dialer, handler, log)

	type target struct {
		node config.Node
		role config.Role
	}
	var targets []target
	for _, n := range cfg.Nodes.Servers {
		targets = append(targets, target{n, config.RoleServer})
	}
	for _, n := range cfg.Nodes.Agents {
		targets = append(targets, target{n, config.RoleAgent})
	}

	for _, t := range targets {
		nr := NodeResult{Hostname: t.node.Hostname, IP: t.node.IP, Role: t.role}
		nr.Err = uninstallNode(c, t.node, t.role)
		c.Result.Record(nr)

		if nr.Err != nil && !force {
			return c.Result, nr.Err
		}
	}
	return c.Result, nil
}

func uninstallNode(ctx *Context, node config.Node, role config.Role) error {
	sess, osh, err := connect(ctx, node)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()
	return ctx.Distro.Uninstall(ctx, sess, osh, role)
}
