package distro

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/airgapctl/internal/config"
	"github.com/imamik/airgapctl/internal/deploy/bundle"
	"github.com/imamik/airgapctl/internal/deploy/service"
	"github.com/imamik/airgapctl/internal/osfamily"
	"github.com/imamik/airgapctl/internal/remote"
)

const (
	rke2TokenPath = "/var/lib/rancher/rke2/server/node-token"
	rke2ImagesDir = "/var/lib/rancher/rke2/agent/images"
	rke2StateDir  = "/var/lib/rancher/rke2"
	rke2ConfigDir = "/etc/rancher/rke2"
)

// rke2Handler deploys RKE2 from an airgapped bundle laid out as
// bin/, rpm/ (or deb/), images/, systemd/ and gpu/ directories.
type rke2Handler struct {
	log    logr.Logger
	stager *bundle.Stager
	svc    *service.Configurator
}

func newRKE2(log logr.Logger) Handler {
	return &rke2Handler{
		log:    log,
		stager: &bundle.Stager{Log: log},
		svc:    service.NewConfigurator(log),
	}
}

func (h *rke2Handler) Name() string { return "rke2" }

func (h *rke2Handler) TokenPath() string { return rke2TokenPath }

func (h *rke2Handler) ValidateRequirements(cfg *config.Config) error {
	if _, err := os.Stat(cfg.Cluster.Bundle.Path); err != nil {
		return fmt.Errorf("airgap bundle not found at %s: %w", cfg.Cluster.Bundle.Path, err)
	}
	return nil
}

func (h *rke2Handler) PrepareNode(ctx context.Context, sess remote.Session, osh osfamily.Handler, cfg *config.Config, role config.Role) error {
	extract := cfg.ExtractPath()

	if err := h.stager.Stage(ctx, sess, cfg.Cluster.Bundle.Path, extract); err != nil {
		return err
	}

	pkgDir := path.Join(extract, packageDirFor(osh))
	if err := h.stager.InstallAll(ctx, sess, osh, pkgDir); err != nil {
		return err
	}

	if archive := cfg.Cluster.Bundle.ImagesArchive; archive != "" {
		if err := h.stager.LoadImages(ctx, sess, path.Join(extract, archive), rke2ImagesDir); err != nil {
			return err
		}
	}

	tools := []string{"rke2"}
	if role == config.RoleServer {
		tools = append(tools, "kubectl")
		tools = append(tools, cfg.ExtraTools...)
	}
	return h.stager.InstallBinaries(ctx, sess, extract, tools)
}

func (h *rke2Handler) ConfigureService(ctx context.Context, sess remote.Session, osh osfamily.Handler, cfg *config.Config, node config.Node, role config.Role, initializerIP, joinToken string) error {
	doc, err := h.svc.RenderConfig(role, cfg.Cluster, node, initializerIP, joinToken)
	if err != nil {
		return err
	}
	registries, err := h.svc.RenderRegistries(cfg.Cluster)
	if err != nil {
		return err
	}
	return h.svc.Install(ctx, sess, osh, role, doc, registries, cfg.ExtractPath())
}

func (h *rke2Handler) StartService(ctx context.Context, sess remote.Session, role config.Role) error {
	return h.svc.Start(ctx, sess, role)
}

func (h *rke2Handler) ProvisionGPU(ctx context.Context, sess remote.Session, osh osfamily.Handler, cfg *config.Config) error {
	gpuDir := path.Join(cfg.ExtractPath(), "gpu")
	installed, err := h.stager.InstallPackages(ctx, sess, osh, gpuDir, osh.GPUPackages())
	if err != nil {
		return err
	}
	h.log.Info("gpu runtime provisioned", "host", sess.Host(), "installed", installed)
	return nil
}

func (h *rke2Handler) HealthCheck(ctx context.Context, sess remote.Session) (Health, error) {
	var health Health

	active, err := sess.RunElevated(ctx, fmt.Sprintf("systemctl is-active %s", h.svc.ServiceName(config.RoleServer)))
	if err != nil {
		return health, err
	}
	health.ServiceActive = strings.TrimSpace(active.Stdout) == "active"

	nodes, err := sess.RunElevated(ctx, "kubectl get nodes --kubeconfig /etc/rancher/rke2/rke2.yaml")
	if err != nil {
		return health, err
	}
	if nodes.ExitCode == 0 {
		health.NodesOutput = nodes.Stdout
	}
	return health, nil
}

func (h *rke2Handler) Uninstall(ctx context.Context, sess remote.Session, osh osfamily.Handler, role config.Role) error {
	unit := h.svc.ServiceName(role) + ".service"

	// Stop/disable may fail if the unit was never installed; cleanup
	// continues regardless.
	cleanup := []string{
		fmt.Sprintf("systemctl stop %s", unit),
		fmt.Sprintf("systemctl disable %s", unit),
		fmt.Sprintf("rm -f /etc/systemd/system/%s", unit),
		"systemctl daemon-reload",
		fmt.Sprintf("rm -rf %s %s /var/lib/kubelet /opt/rke2", rke2StateDir, rke2ConfigDir),
		"rm -f /usr/local/bin/rke2 /usr/local/bin/kubectl",
	}
	for _, cmd := range cleanup {
		if _, err := sess.RunElevated(ctx, cmd); err != nil {
			return err
		}
	}

	if role == config.RoleServer {
		for _, cmd := range osh.FirewallClose([]string{"9345/tcp", "6443/tcp", "8472/udp", "10250/tcp"}) {
			if _, err := sess.RunElevated(ctx, cmd); err != nil {
				return err
			}
		}
	}

	h.log.Info("distribution removed", "host", sess.Host(), "unit", unit)
	return nil
}

// packageDirFor maps an OS family to the bundle's package directory.
func packageDirFor(osh osfamily.Handler) string {
	if osh.Name() == "ubuntu" {
		return "deb"
	}
	return "rpm"
}
