// Package main is the entry point for the airgapctl CLI.
//
// airgapctl deploys Kubernetes distributions (RKE2, K3s) onto airgapped
// fleets over SSH. All software arrives through a pre-built bundle; nodes
// never reach the public internet.
//
// Commands: deploy, uninstall, generate-config, supported, version.
//
// For detailed usage information, run:
//
//	airgapctl --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/airgapctl/cmd/airgapctl/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
