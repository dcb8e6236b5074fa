// Package service renders a node's role configuration and installs the
// distribution's systemd unit. It never retrieves the join token itself;
// the sequencer hands it in.
package service

import (
	"context"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"

	"github.com/imamik/airgapctl/internal/config"
	"github.com/imamik/airgapctl/internal/osfamily"
	"github.com/imamik/airgapctl/internal/remote"
)

// SupervisorPort is the join endpoint servers expose to joining nodes.
const SupervisorPort = 9345

// serverPorts are opened on control-plane nodes: supervisor join API,
// kube-apiserver, overlay network VXLAN and kubelet.
var serverPorts = []string{"9345/tcp", "6443/tcp", "8472/udp", "10250/tcp"}

// Configurator renders and installs role configuration and service units.
type Configurator struct {
	Log logr.Logger

	// ConfigDir is the remote directory the role config lands in.
	ConfigDir string

	// UnitDir is where systemd units are installed.
	UnitDir string

	// ServicePrefix names the unit: <prefix>-server / <prefix>-agent.
	ServicePrefix string
}

// NewConfigurator returns a configurator with RKE2-style defaults.
func NewConfigurator(log logr.Logger) *Configurator {
	return &Configurator{
		Log:           log,
		ConfigDir:     "/etc/rancher/rke2",
		UnitDir:       "/etc/systemd/system",
		ServicePrefix: "rke2",
	}
}

// ServiceName returns the unit name for a role.
func (c *Configurator) ServiceName(role config.Role) string {
	return fmt.Sprintf("%s-%s", c.ServicePrefix, role)
}

// RenderConfig produces the node's role configuration document.
//
// The initializer (a server with an empty joinToken) gets cluster-init and
// no server address. Every other node embeds the initializer's address and
// the token retrieved from it.
func (c *Configurator) RenderConfig(role config.Role, cluster config.ClusterSpec, node config.Node, initializerIP, joinToken string) ([]byte, error) {
	doc := map[string]any{
		"node-name": node.Hostname,
	}

	initializer := role == config.RoleServer && joinToken == ""
	if initializer {
		doc["cluster-init"] = true
	} else {
		if joinToken == "" {
			return nil, fmt.Errorf("join token required for %s %s", role, node.Hostname)
		}
		doc["server"] = fmt.Sprintf("https://%s:%d", initializerIP, SupervisorPort)
		doc["token"] = joinToken
	}

	if role == config.RoleServer {
		tlsSAN := []string{node.IP, node.Hostname}
		if cluster.Domain != "" {
			tlsSAN = append(tlsSAN, fmt.Sprintf("%s.%s", node.Hostname, cluster.Domain))
		}
		doc["tls-san"] = tlsSAN

		if cluster.ClusterCIDR != "" {
			doc["cluster-cidr"] = cluster.ClusterCIDR
		}
		if cluster.ServiceCIDR != "" {
			doc["service-cidr"] = cluster.ServiceCIDR
		}
		if len(cluster.CNI) > 0 {
			doc["cni"] = cluster.CNI
		}
	}

	for k, v := range cluster.Settings {
		doc[k] = v
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal role config: %w", err)
	}
	return out, nil
}

// RenderRegistries produces registries.yaml for internal mirror
// configuration, or nil when the cluster defines none.
func (c *Configurator) RenderRegistries(cluster config.ClusterSpec) ([]byte, error) {
	if len(cluster.Registry) == 0 {
		return nil, nil
	}
	out, err := yaml.Marshal(cluster.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal registries config: %w", err)
	}
	return out, nil
}

// Install writes the config document, installs the unit shipped in the
// bundle, reloads systemd and enables the service. Servers additionally get
// their firewall ports opened. The service is not started here.
func (c *Configurator) Install(ctx context.Context, sess remote.Session, osh osfamily.Handler, role config.Role, doc, registries []byte, extractPath string) error {
	if err := c.putFile(ctx, sess, doc, c.ConfigDir+"/config.yaml"); err != nil {
		return err
	}
	if len(registries) > 0 {
		if err := c.putFile(ctx, sess, registries, c.ConfigDir+"/registries.yaml"); err != nil {
			return err
		}
	}

	unit := c.ServiceName(role) + ".service"
	steps := []string{
		fmt.Sprintf("cp %s/systemd/%s %s/%s", extractPath, unit, c.UnitDir, unit),
		"systemctl daemon-reload",
		fmt.Sprintf("systemctl enable %s", unit),
	}
	if role == config.RoleServer {
		steps = append(steps, osh.FirewallOpen(serverPorts)...)
	}

	for _, cmd := range steps {
		result, err := sess.RunElevated(ctx, cmd)
		if err != nil {
			return err
		}
		if remote.Classify(result) == remote.FatalFailure {
			return fmt.Errorf("service setup step %q failed on %s (exit %d): %s",
				cmd, sess.Host(), result.ExitCode, result.Output())
		}
	}

	c.Log.Info("service installed", "host", sess.Host(), "unit", unit)
	return nil
}

// Start starts the role's service unit.
func (c *Configurator) Start(ctx context.Context, sess remote.Session, role config.Role) error {
	unit := c.ServiceName(role) + ".service"
	result, err := sess.RunElevated(ctx, fmt.Sprintf("systemctl start %s", unit))
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("starting %s on %s failed (exit %d): %s",
			unit, sess.Host(), result.ExitCode, result.Output())
	}
	c.Log.Info("service started", "host", sess.Host(), "unit", unit)
	return nil
}

// putFile lands content at remotePath via a staging upload, because the
// config embeds the join token and must never be quoted into a shell
// command line.
func (c *Configurator) putFile(ctx context.Context, sess remote.Session, content []byte, remotePath string) error {
	tmp, err := os.CreateTemp("", "airgapctl-config-*")
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write staging file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close staging file: %w", err)
	}

	staged := "/tmp/airgapctl.staged"
	if err := sess.Upload(ctx, tmp.Name(), staged); err != nil {
		return err
	}

	steps := []string{
		fmt.Sprintf("mkdir -p %s", c.ConfigDir),
		fmt.Sprintf("install -m 600 %s %s", staged, remotePath),
		fmt.Sprintf("rm -f %s", staged),
	}
	for _, cmd := range steps {
		result, err := sess.RunElevated(ctx, cmd)
		if err != nil {
			return err
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("config install step %q failed on %s (exit %d): %s",
				cmd, sess.Host(), result.ExitCode, result.Output())
		}
	}
	return nil
}
