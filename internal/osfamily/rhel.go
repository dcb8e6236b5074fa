package osfamily

import (
	"fmt"
	"strings"
)

// rhelHandler covers RHEL, Rocky and CentOS Stream hosts: rpm/dnf for
// packages and firewalld for network rules.
type rhelHandler struct{}

func (h *rhelHandler) Name() string { return "rhel" }

func (h *rhelHandler) QueryPackage(pkg string) string {
	return fmt.Sprintf("rpm -q %s", pkg)
}

func (h *rhelHandler) InstallBundledPackages(dir string) string {
	// --nogpgcheck: bundle RPMs are built in-house and unsigned.
	return fmt.Sprintf("dnf install -y %s/*.rpm --nogpgcheck", dir)
}

func (h *rhelHandler) InstallBundledPackage(dir, pkg string) string {
	return fmt.Sprintf("dnf install -y %s/%s*.rpm --nogpgcheck", dir, pkg)
}

func (h *rhelHandler) RemovePackages(pkgs []string) string {
	return fmt.Sprintf("dnf remove -y %s", strings.Join(pkgs, " "))
}

func (h *rhelHandler) FirewallOpen(ports []string) []string {
	cmds := make([]string, 0, len(ports)+1)
	for _, p := range ports {
		cmds = append(cmds, fmt.Sprintf("firewall-cmd --permanent --add-port=%s", p))
	}
	cmds = append(cmds, "firewall-cmd --reload")
	return cmds
}

func (h *rhelHandler) FirewallClose(ports []string) []string {
	cmds := make([]string, 0, len(ports)+1)
	for _, p := range ports {
		cmds = append(cmds, fmt.Sprintf("firewall-cmd --permanent --remove-port=%s", p))
	}
	cmds = append(cmds, "firewall-cmd --reload")
	return cmds
}

func (h *rhelHandler) GPUPackages() []string {
	return []string{"nvidia-container-toolkit", "nvidia-container-runtime"}
}
