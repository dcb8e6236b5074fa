// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic and
// can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/imamik/airgapctl/internal/config"
	"github.com/imamik/airgapctl/internal/deploy"
	"github.com/imamik/airgapctl/internal/platform/objstore"
	"github.com/imamik/airgapctl/internal/platform/ssh"
	"github.com/imamik/airgapctl/internal/remote"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfigFile loads and validates the deployment configuration.
	loadConfigFile = config.LoadFile

	// newDialer creates the SSH dialer shared by all nodes in a run.
	newDialer = func() remote.Dialer {
		return ssh.NewDialer(ssh.DialerConfig{})
	}

	// runDeploy executes the bootstrap sequence.
	runDeploy = deploy.Run

	// runUninstall removes the distribution from the fleet.
	runUninstall = deploy.Uninstall

	// fetchBundle downloads the bundle from the internal object store.
	fetchBundle = func(ctx context.Context, store *config.Objstore, source, destPath string) error {
		client, err := objstore.NewClient(ctx, store)
		if err != nil {
			return err
		}
		return client.Fetch(ctx, source, destPath)
	}

	// out is where handlers print reports (for testing injection).
	out io.Writer = os.Stdout
)

// newLogger builds the run logger. Structured key/value output goes to
// stderr so stdout stays clean for plans and summaries.
func newLogger(verbose bool) logr.Logger {
	verbosity := 0
	if verbose {
		verbosity = 1
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: verbosity})
}

// Deploy bootstraps the configured cluster onto the fleet.
//
// The workflow:
//  1. Load and validate the configuration.
//  2. With --dry-run, print the node processing plan and stop; no
//     connection is opened.
//  3. Fetch the bundle from the internal object store when a source is
//     configured.
//  4. Run the bootstrap sequence and print the per-node report.
//
// A partially deployed fleet is left in place for diagnosis; re-running
// deploy converges nodes that already succeeded.
func Deploy(ctx context.Context, configPath string, extraTools []string, dryRun, verbose bool) error {
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return err
	}
	cfg.ExtraTools = append(cfg.ExtraTools, extraTools...)

	if dryRun {
		fmt.Fprint(out, deploy.FormatPlan(deploy.Plan(cfg)))
		return nil
	}

	log := newLogger(verbose)

	if source := cfg.Cluster.Bundle.Source; source != "" {
		log.Info("fetching bundle from object store", "source", source, "dest", cfg.Cluster.Bundle.Path)
		if err := fetchBundle(ctx, cfg.Objstore, source, cfg.Cluster.Bundle.Path); err != nil {
			return fmt.Errorf("fetching bundle: %w", err)
		}
	}

	result, err := runDeploy(ctx, cfg, newDialer(), log)
	fmt.Fprint(out, result.Summary())
	if err != nil {
		return err
	}
	if result.Failed() {
		return fmt.Errorf("deployment completed with failed nodes")
	}
	return nil
}
