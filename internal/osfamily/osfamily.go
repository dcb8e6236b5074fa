// Package osfamily supplies OS-specific behavior behind a uniform
// capability interface: package manager command sets, service management
// and firewall tooling. Adding an OS family means adding a variant here,
// not touching call sites.
package osfamily

import "fmt"

// Handler exposes the OS-specific commands the deployment engine needs.
// All methods return shell commands to be executed elevated on the node.
type Handler interface {
	// Name returns the family discriminant ("rhel", "ubuntu").
	Name() string

	// QueryPackage returns a command that exits zero when pkg is installed.
	QueryPackage(pkg string) string

	// InstallBundledPackages returns a command installing every package
	// shipped in dir without touching a remote repository.
	InstallBundledPackages(dir string) string

	// InstallBundledPackage returns a command installing the single named
	// package from dir.
	InstallBundledPackage(dir, pkg string) string

	// RemovePackages returns a command removing the named packages.
	RemovePackages(pkgs []string) string

	// FirewallOpen returns commands opening the given port specs
	// (e.g. "6443/tcp"), ending with a rule reload where needed.
	FirewallOpen(ports []string) []string

	// FirewallClose returns commands removing the same rules.
	FirewallClose(ports []string) []string

	// GPUPackages lists the packages for GPU runtime provisioning,
	// expected inside the bundle's gpu directory.
	GPUPackages() []string
}

// UnsupportedError is returned for an unknown OS family.
type UnsupportedError struct {
	Name string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported OS family %q (supported: %v)", e.Name, Supported())
}

var registry = map[string]Handler{
	"rhel":   &rhelHandler{},
	"ubuntu": &ubuntuHandler{},
}

// Get resolves an OS family handler by name.
func Get(name string) (Handler, error) {
	h, ok := registry[name]
	if !ok {
		return nil, &UnsupportedError{Name: name}
	}
	return h, nil
}

// Supported lists registered OS families.
func Supported() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
