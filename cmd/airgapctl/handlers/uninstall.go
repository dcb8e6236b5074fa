package handlers

import (
	"context"
	"fmt"
)

// Uninstall removes the distribution from every configured node.
//
// Without force the first failing node aborts the run; with force every
// node is attempted and failures are only reported.
func Uninstall(ctx context.Context, configPath string, force, verbose bool) error {
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return err
	}

	result, err := runUninstall(ctx, cfg, newDialer(), newLogger(verbose), force)
	fmt.Fprint(out, result.Summary())
	if err != nil {
		return err
	}
	if result.Failed() {
		return fmt.Errorf("uninstall completed with failed nodes")
	}
	return nil
}
