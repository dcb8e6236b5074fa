package deploy

import (
	"fmt"
	"strings"

	"github.com/imamik/airgapctl/internal/config"
	"github.com/imamik/airgapctl/internal/remote"
	"github.com/imamik/airgapctl/internal/util/retry"
)

// initializingPhase processes the first configured server: full node setup
// with no join token, then retrieval of the token its service produced.
// Everything after this phase depends on that token.
type initializingPhase struct{}

func (initializingPhase) Name() string { return "InitializingFirstServer" }

func (initializingPhase) Run(ctx *Context) error {
	node := ctx.Cfg.Nodes.Servers[0]
	ctx.State.InitializerIP = node.IP

	nr := NodeResult{Hostname: node.Hostname, IP: node.IP, Role: config.RoleServer, Initializer: true}

	sess, osh, err := connect(ctx, node)
	if err != nil {
		nr.Err = err
		ctx.Result.Record(nr)
		return err
	}
	defer func() { _ = sess.Close() }()

	if err := configureNode(ctx, sess, osh, node, config.RoleServer, ""); err != nil {
		nr.Err = err
		ctx.Result.Record(nr)
		return err
	}

	token, err := retrieveToken(ctx, sess, node.Hostname)
	if err != nil {
		nr.Err = err
		ctx.Result.Record(nr)
		return err
	}
	ctx.State.JoinToken = token

	ctx.Result.Record(nr)
	ctx.Log.Info("cluster initialized", "host", node.Hostname)
	return nil
}

// retrieveToken reads the join credential the initializer's service writes
// after start. The service needs time to come up, so the read is retried
// until the file exists and is non-empty.
func retrieveToken(ctx *Context, sess remote.Session, host string) (string, error) {
	tokenPath := ctx.Distro.TokenPath()

	var token string
	err := retry.Do(ctx, func() error {
		result, err := sess.RunElevated(ctx, "cat "+tokenPath)
		if err != nil {
			return retry.Permanent(err)
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("token not readable yet: %s", result.Output())
		}
		token = strings.TrimSpace(result.Stdout)
		if token == "" {
			return fmt.Errorf("token file is empty")
		}
		return nil
	},
		retry.WithMaxAttempts(ctx.TokenAttempts),
		retry.WithInitialDelay(ctx.TokenDelay),
	)
	if err != nil {
		return "", &TokenRetrievalError{Host: host, Path: tokenPath, Err: err}
	}

	ctx.Log.Info("join token retrieved", "host", host)
	return token, nil
}

// joiningServersPhase processes the remaining servers in configured order.
// Each failure is recorded; fail-fast policy aborts the run, otherwise the
// next node proceeds.
type joiningServersPhase struct{}

func (joiningServersPhase) Name() string { return "JoiningServers" }

func (joiningServersPhase) Run(ctx *Context) error {
	for _, node := range ctx.Cfg.Nodes.Servers[1:] {
		nr := NodeResult{Hostname: node.Hostname, IP: node.IP, Role: config.RoleServer}
		nr.Err = joinNode(ctx, node, config.RoleServer)
		ctx.Result.Record(nr)

		if nr.Err != nil && ctx.Cfg.FailFastEnabled() {
			return fmt.Errorf("server %s failed to join: %w", node.Hostname, nr.Err)
		}
	}
	return nil
}

// joinNode attaches one node to the initialized cluster.
func joinNode(ctx *Context, node config.Node, role config.Role) error {
	sess, osh, err := connect(ctx, node)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()
	return configureNode(ctx, sess, osh, node, role, ctx.State.JoinToken)
}
