// Package bundle stages the airgapped distribution bundle on a node and
// drives idempotent package installation and container image loading.
package bundle

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/imamik/airgapctl/internal/osfamily"
	"github.com/imamik/airgapctl/internal/remote"
)

// Stager uploads and unpacks bundles and installs their contents.
type Stager struct {
	Log logr.Logger
}

// Stage uploads the bundle archive and extracts it to extractPath. The
// top-level directory inside the archive is stripped so the layout under
// extractPath is stable regardless of how the bundle was built.
func (s *Stager) Stage(ctx context.Context, sess remote.Session, bundlePath, extractPath string) error {
	remoteBundle := path.Join("/tmp", filepath.Base(bundlePath))

	s.Log.Info("uploading bundle", "host", sess.Host(), "archive", remoteBundle)
	if err := sess.Upload(ctx, bundlePath, remoteBundle); err != nil {
		return err
	}

	steps := []string{
		fmt.Sprintf("mkdir -p %s", extractPath),
		fmt.Sprintf("tar -xzf %s --strip-components=1 -C %s", remoteBundle, extractPath),
	}
	for _, cmd := range steps {
		result, err := sess.RunElevated(ctx, cmd)
		if err != nil {
			return err
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("staging step %q failed on %s (exit %d): %s",
				cmd, sess.Host(), result.ExitCode, result.Output())
		}
	}

	s.Log.Info("bundle extracted", "host", sess.Host(), "path", extractPath)
	return nil
}

// InstallPackages installs the named packages from the bundle's package
// directory. Each package is queried first; packages already present are
// skipped so re-running a deployment performs zero installation actions on
// a converged node. Returns the packages actually installed.
func (s *Stager) InstallPackages(ctx context.Context, sess remote.Session, osh osfamily.Handler, pkgDir string, pkgs []string) ([]string, error) {
	var installed []string
	for _, pkg := range pkgs {
		query, err := sess.RunElevated(ctx, osh.QueryPackage(pkg))
		if err != nil {
			return installed, err
		}
		if query.ExitCode == 0 {
			s.Log.Info("package already installed, skipping", "host", sess.Host(), "package", pkg)
			continue
		}

		result, err := sess.RunElevated(ctx, osh.InstallBundledPackage(pkgDir, pkg))
		if err != nil {
			return installed, err
		}
		switch remote.Classify(result) {
		case remote.Success:
			installed = append(installed, pkg)
		case remote.BenignFailure:
			s.Log.Info("package install reported already-present state", "host", sess.Host(), "package", pkg)
		default:
			return installed, fmt.Errorf("installing %s on %s failed (exit %d): %s",
				pkg, sess.Host(), result.ExitCode, result.Output())
		}
	}
	return installed, nil
}

// InstallAll installs every package shipped in pkgDir in one shot. Used for
// the base distribution packages where the bundle is authoritative.
func (s *Stager) InstallAll(ctx context.Context, sess remote.Session, osh osfamily.Handler, pkgDir string) error {
	result, err := sess.RunElevated(ctx, osh.InstallBundledPackages(pkgDir))
	if err != nil {
		return err
	}
	switch remote.Classify(result) {
	case remote.Success:
		return nil
	case remote.BenignFailure:
		s.Log.Info("bundled packages already installed", "host", sess.Host(), "dir", pkgDir)
		return nil
	default:
		return fmt.Errorf("installing bundled packages from %s on %s failed (exit %d): %s",
			pkgDir, sess.Host(), result.ExitCode, result.Output())
	}
}

// LoadImages places the container image archive into the runtime's offline
// image directory so service start never consults a registry.
func (s *Stager) LoadImages(ctx context.Context, sess remote.Session, archivePath, imagesDir string) error {
	steps := []string{
		fmt.Sprintf("mkdir -p %s", imagesDir),
		fmt.Sprintf("cp %s %s/", archivePath, imagesDir),
		fmt.Sprintf("chmod 644 %s/%s", imagesDir, filepath.Base(archivePath)),
	}
	for _, cmd := range steps {
		result, err := sess.RunElevated(ctx, cmd)
		if err != nil {
			return err
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("image load step %q failed on %s (exit %d): %s",
				cmd, sess.Host(), result.ExitCode, result.Output())
		}
	}
	s.Log.Info("container images staged", "host", sess.Host(), "dir", imagesDir)
	return nil
}

// InstallBinaries copies the named tools from the bundle's bin directory
// into /usr/local/bin and marks them executable.
func (s *Stager) InstallBinaries(ctx context.Context, sess remote.Session, extractPath string, tools []string) error {
	for _, tool := range tools {
		steps := []string{
			fmt.Sprintf("cp %s/bin/%s /usr/local/bin/%s", extractPath, tool, tool),
			fmt.Sprintf("chmod +x /usr/local/bin/%s", tool),
		}
		for _, cmd := range steps {
			result, err := sess.RunElevated(ctx, cmd)
			if err != nil {
				return err
			}
			if result.ExitCode != 0 {
				return fmt.Errorf("installing %s on %s failed (exit %d): %s",
					tool, sess.Host(), result.ExitCode, result.Output())
			}
		}
	}
	return nil
}
