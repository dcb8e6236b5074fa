package deploy

// healthCheckingPhase queries readiness on every server node. Results are
// recorded and reported; a failing check never escalates to abort a
// completed deployment, so this phase always returns nil.
type healthCheckingPhase struct{}

func (healthCheckingPhase) Name() string { return "HealthChecking" }

func (healthCheckingPhase) Run(ctx *Context) error {
	for _, node := range ctx.Cfg.Nodes.Servers {
		hr := HealthResult{Hostname: node.Hostname}

		sess, _, err := connect(ctx, node)
		if err != nil {
			hr.Err = err
			ctx.Result.Checks = append(ctx.Result.Checks, hr)
			continue
		}

		hr.Health, hr.Err = ctx.Distro.HealthCheck(ctx, sess)
		_ = sess.Close()

		if hr.Err == nil && !hr.Health.ServiceActive {
			ctx.Log.Info("service not active", "host", node.Hostname)
		}
		ctx.Result.Checks = append(ctx.Result.Checks, hr)
	}
	return nil
}
