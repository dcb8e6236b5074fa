// Package distro supplies distribution-specific deployment behavior behind
// a uniform capability interface. The sequencer resolves a handler once per
// run; adding a distribution means registering a new variant, not editing
// call sites.
package distro

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/airgapctl/internal/config"
	"github.com/imamik/airgapctl/internal/osfamily"
	"github.com/imamik/airgapctl/internal/remote"
)

// Health reports the outcome of a post-install check on one server.
// It is informational; health results never roll back a deployment.
type Health struct {
	ServiceActive bool
	NodesOutput   string
}

// Handler implements distribution-specific deployment steps.
type Handler interface {
	// Name returns the distribution discriminant ("rke2", "k3s").
	Name() string

	// ValidateRequirements checks local pre-flight requirements. It must
	// not open any remote connection.
	ValidateRequirements(cfg *config.Config) error

	// PrepareNode stages the bundle and installs packages, images and
	// binaries on the node.
	PrepareNode(ctx context.Context, sess remote.Session, osh osfamily.Handler, cfg *config.Config, role config.Role) error

	// ConfigureService renders and installs the role configuration and
	// service unit. joinToken is empty only for the initializer.
	ConfigureService(ctx context.Context, sess remote.Session, osh osfamily.Handler, cfg *config.Config, node config.Node, role config.Role, initializerIP, joinToken string) error

	// StartService starts the role's service unit.
	StartService(ctx context.Context, sess remote.Session, role config.Role) error

	// TokenPath is the remote file the initializer's running service
	// writes the join credential to.
	TokenPath() string

	// ProvisionGPU installs the GPU runtime packages from the bundle.
	ProvisionGPU(ctx context.Context, sess remote.Session, osh osfamily.Handler, cfg *config.Config) error

	// HealthCheck queries service and cluster readiness on a server.
	HealthCheck(ctx context.Context, sess remote.Session) (Health, error)

	// Uninstall stops the service and removes packages and state.
	Uninstall(ctx context.Context, sess remote.Session, osh osfamily.Handler, role config.Role) error
}

// UnsupportedError is returned for an unknown distribution.
type UnsupportedError struct {
	Name string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported distribution %q (supported: %v)", e.Name, Supported())
}

// Factory builds a handler with its logger injected.
type Factory func(log logr.Logger) Handler

var registry = map[string]Factory{
	"rke2": newRKE2,
	"k3s":  newK3s,
}

// Get resolves a distribution handler by name.
func Get(name string, log logr.Logger) (Handler, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, &UnsupportedError{Name: name}
	}
	return factory(log), nil
}

// Supported lists registered distributions.
func Supported() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
