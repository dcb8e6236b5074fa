package deploy

import (
	"fmt"
	"time"
)

// Phase is one step of the bootstrap state machine.
type Phase interface {
	// Name returns the phase name used in logs and diagnostics.
	Name() string

	// Run executes the phase. A returned error moves the run to Failed;
	// later phases do not execute.
	Run(ctx *Context) error
}

// runPhases executes phases sequentially, logging timing per phase.
func runPhases(ctx *Context, phases []Phase) error {
	start := time.Now()
	for i, phase := range phases {
		phaseStart := time.Now()
		ctx.Log.Info("phase starting", "phase", phase.Name(), "step", fmt.Sprintf("%d/%d", i+1, len(phases)))

		if err := phase.Run(ctx); err != nil {
			ctx.Log.Error(err, "phase failed", "phase", phase.Name())
			return fmt.Errorf("%s phase failed: %w", phase.Name(), err)
		}

		ctx.Log.Info("phase completed", "phase", phase.Name(),
			"elapsed", time.Since(phaseStart).Round(time.Millisecond).String())
	}
	ctx.Log.Info("deployment sequence completed", "elapsed", time.Since(start).Round(time.Millisecond).String())
	return nil
}
