// Package deploy contains the cluster bootstrap sequencer: an explicit
// phase state machine that orders node processing, propagates the join
// credential from the initializer to every joiner, and aggregates per-node
// outcomes.
package deploy

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/airgapctl/internal/config"
	"github.com/imamik/airgapctl/internal/distro"
	"github.com/imamik/airgapctl/internal/remote"
)

// State holds values produced by earlier phases and consumed by later
// ones. The join token is written exactly once, by the initializer phase,
// and is read-only afterwards.
type State struct {
	// JoinToken is the credential retrieved from the initializer.
	JoinToken string

	// InitializerIP is the address joiners connect to.
	InitializerIP string
}

// Context carries everything a phase needs.
type Context struct {
	context.Context

	Cfg    *config.Config
	Dialer remote.Dialer
	Distro distro.Handler
	Log    logr.Logger

	State  *State
	Result *Result

	// TokenAttempts and TokenDelay bound the wait for the initializer's
	// service to produce the join credential.
	TokenAttempts int
	TokenDelay    time.Duration
}

// NewContext builds a phase context for one deployment run.
func NewContext(ctx context.Context, cfg *config.Config, dialer remote.Dialer, handler distro.Handler, log logr.Logger) *Context {
	return &Context{
		Context:       ctx,
		Cfg:           cfg,
		Dialer:        dialer,
		Distro:        handler,
		Log:           log,
		State:         &State{},
		Result:        NewResult(),
		TokenAttempts: 20,
		TokenDelay:    3 * time.Second,
	}
}
