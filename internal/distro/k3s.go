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
	k3sTokenPath = "/var/lib/rancher/k3s/server/node-token"
	k3sImagesDir = "/var/lib/rancher/k3s/agent/images"
)

// k3sHandler deploys K3s from an airgapped bundle. K3s ships as a single
// binary, so node preparation skips package installation entirely.
type k3sHandler struct {
	log    logr.Logger
	stager *bundle.Stager
	svc    *service.Configurator
}

func newK3s(log logr.Logger) Handler {
	svc := service.NewConfigurator(log)
	svc.ConfigDir = "/etc/rancher/k3s"
	svc.ServicePrefix = "k3s"
	return &k3sHandler{
		log:    log,
		stager: &bundle.Stager{Log: log},
		svc:    svc,
	}
}

func (h *k3sHandler) Name() string { return "k3s" }

func (h *k3sHandler) TokenPath() string { return k3sTokenPath }

func (h *k3sHandler) ValidateRequirements(cfg *config.Config) error {
	if _, err := os.Stat(cfg.Cluster.Bundle.Path); err != nil {
		return fmt.Errorf("airgap bundle not found at %s: %w", cfg.Cluster.Bundle.Path, err)
	}
	return nil
}

func (h *k3sHandler) PrepareNode(ctx context.Context, sess remote.Session, osh osfamily.Handler, cfg *config.Config, role config.Role) error {
	extract := cfg.ExtractPath()

	if err := h.stager.Stage(ctx, sess, cfg.Cluster.Bundle.Path, extract); err != nil {
		return err
	}

	if archive := cfg.Cluster.Bundle.ImagesArchive; archive != "" {
		if err := h.stager.LoadImages(ctx, sess, path.Join(extract, archive), k3sImagesDir); err != nil {
			return err
		}
	}

	tools := []string{"k3s"}
	if role == config.RoleServer {
		tools = append(tools, cfg.ExtraTools...)
	}
	return h.stager.InstallBinaries(ctx, sess, extract, tools)
}

func (h *k3sHandler) ConfigureService(ctx context.Context, sess remote.Session, osh osfamily.Handler, cfg *config.Config, node config.Node, role config.Role, initializerIP, joinToken string) error {
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

func (h *k3sHandler) StartService(ctx context.Context, sess remote.Session, role config.Role) error {
	return h.svc.Start(ctx, sess, role)
}

func (h *k3sHandler) ProvisionGPU(ctx context.Context, sess remote.Session, osh osfamily.Handler, cfg *config.Config) error {
	gpuDir := path.Join(cfg.ExtractPath(), "gpu")
	installed, err := h.stager.InstallPackages(ctx, sess, osh, gpuDir, osh.GPUPackages())
	if err != nil {
		return err
	}
	h.log.Info("gpu runtime provisioned", "host", sess.Host(), "installed", installed)
	return nil
}

func (h *k3sHandler) HealthCheck(ctx context.Context, sess remote.Session) (Health, error) {
	var health Health

	active, err := sess.RunElevated(ctx, fmt.Sprintf("systemctl is-active %s", h.svc.ServiceName(config.RoleServer)))
	if err != nil {
		return health, err
	}
	health.ServiceActive = strings.TrimSpace(active.Stdout) == "active"

	nodes, err := sess.RunElevated(ctx, "k3s kubectl get nodes")
	if err != nil {
		return health, err
	}
	if nodes.ExitCode == 0 {
		health.NodesOutput = nodes.Stdout
	}
	return health, nil
}

func (h *k3sHandler) Uninstall(ctx context.Context, sess remote.Session, osh osfamily.Handler, role config.Role) error {
	unit := h.svc.ServiceName(role) + ".service"

	cleanup := []string{
		fmt.Sprintf("systemctl stop %s", unit),
		fmt.Sprintf("systemctl disable %s", unit),
		fmt.Sprintf("rm -f /etc/systemd/system/%s", unit),
		"systemctl daemon-reload",
		"rm -rf /var/lib/rancher/k3s /etc/rancher/k3s /var/lib/kubelet",
		"rm -f /usr/local/bin/k3s",
	}
	for _, cmd := range cleanup {
		if _, err := sess.RunElevated(ctx, cmd); err != nil {
			return err
		}
	}

	if role == config.RoleServer {
		for _, cmd := range osh.FirewallClose([]string{"6443/tcp", "8472/udp", "10250/tcp"}) {
			if _, err := sess.RunElevated(ctx, cmd); err != nil {
				return err
			}
		}
	}

	h.log.Info("distribution removed", "host", sess.Host(), "unit", unit)
	return nil
}
