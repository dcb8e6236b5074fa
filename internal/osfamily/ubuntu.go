package osfamily

import (
	"fmt"
	"strings"
)

// ubuntuHandler covers Debian-family hosts: dpkg/apt for packages and ufw
// for network rules.
type ubuntuHandler struct{}

func (h *ubuntuHandler) Name() string { return "ubuntu" }

func (h *ubuntuHandler) QueryPackage(pkg string) string {
	return fmt.Sprintf("dpkg-query -W -f='${Status}' %s | grep -q 'install ok installed'", pkg)
}

func (h *ubuntuHandler) InstallBundledPackages(dir string) string {
	return fmt.Sprintf("DEBIAN_FRONTEND=noninteractive dpkg -i %s/*.deb", dir)
}

func (h *ubuntuHandler) InstallBundledPackage(dir, pkg string) string {
	return fmt.Sprintf("DEBIAN_FRONTEND=noninteractive dpkg -i %s/%s*.deb", dir, pkg)
}

func (h *ubuntuHandler) RemovePackages(pkgs []string) string {
	return fmt.Sprintf("DEBIAN_FRONTEND=noninteractive apt-get remove -y %s", strings.Join(pkgs, " "))
}

func (h *ubuntuHandler) FirewallOpen(ports []string) []string {
	// ufw shares the "port/proto" spec syntax with firewalld.
	cmds := make([]string, 0, len(ports))
	for _, p := range ports {
		cmds = append(cmds, "ufw allow "+p)
	}
	return cmds
}

func (h *ubuntuHandler) FirewallClose(ports []string) []string {
	cmds := make([]string, 0, len(ports))
	for _, p := range ports {
		cmds = append(cmds, "ufw delete allow "+p)
	}
	return cmds
}

func (h *ubuntuHandler) GPUPackages() []string {
	return []string{"nvidia-container-toolkit", "nvidia-container-runtime"}
}
