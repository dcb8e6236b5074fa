package service

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/imamik/airgapctl/internal/config"
	"github.com/imamik/airgapctl/internal/osfamily"
	"github.com/imamik/airgapctl/internal/remote"
	"github.com/imamik/airgapctl/internal/testutil"
)

func unmarshalDoc(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(raw, &doc))
	return doc
}

func testNode() config.Node {
	return config.Node{Hostname: "s1", IP: "10.0.0.10", User: "deploy", SSHKey: "/keys/id"}
}

func TestRenderConfig_Initializer(t *testing.T) {
	t.Parallel()
	c := NewConfigurator(logr.Discard())
	cluster := config.ClusterSpec{Name: "prod", Domain: "cluster.internal", ClusterCIDR: "10.42.0.0/16"}

	raw, err := c.RenderConfig(config.RoleServer, cluster, testNode(), "", "")
	require.NoError(t, err)
	doc := unmarshalDoc(t, raw)

	assert.Equal(t, true, doc["cluster-init"])
	assert.NotContains(t, doc, "server")
	assert.NotContains(t, doc, "token")
	assert.Equal(t, "s1", doc["node-name"])
	assert.ElementsMatch(t, []any{"10.0.0.10", "s1", "s1.cluster.internal"}, doc["tls-san"])
	assert.Equal(t, "10.42.0.0/16", doc["cluster-cidr"])
}

func TestRenderConfig_JoiningServer(t *testing.T) {
	t.Parallel()
	c := NewConfigurator(logr.Discard())
	cluster := config.ClusterSpec{Name: "prod"}
	node := config.Node{Hostname: "s2", IP: "10.0.0.11"}

	raw, err := c.RenderConfig(config.RoleServer, cluster, node, "10.0.0.10", "K10secret")
	require.NoError(t, err)
	doc := unmarshalDoc(t, raw)

	assert.NotContains(t, doc, "cluster-init")
	assert.Equal(t, "https://10.0.0.10:9345", doc["server"])
	assert.Equal(t, "K10secret", doc["token"])
	assert.Contains(t, doc, "tls-san")
}

func TestRenderConfig_Agent(t *testing.T) {
	t.Parallel()
	c := NewConfigurator(logr.Discard())
	cluster := config.ClusterSpec{Name: "prod", ClusterCIDR: "10.42.0.0/16"}
	node := config.Node{Hostname: "a1", IP: "10.0.0.20"}

	raw, err := c.RenderConfig(config.RoleAgent, cluster, node, "10.0.0.10", "K10secret")
	require.NoError(t, err)
	doc := unmarshalDoc(t, raw)

	assert.Equal(t, "https://10.0.0.10:9345", doc["server"])
	assert.Equal(t, "K10secret", doc["token"])
	// Control-plane-only keys never reach agents.
	assert.NotContains(t, doc, "tls-san")
	assert.NotContains(t, doc, "cluster-cidr")
}

func TestRenderConfig_MissingTokenRejected(t *testing.T) {
	t.Parallel()
	c := NewConfigurator(logr.Discard())

	_, err := c.RenderConfig(config.RoleAgent, config.ClusterSpec{}, testNode(), "10.0.0.10", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "join token required")
}

func TestRenderConfig_SettingsPassthrough(t *testing.T) {
	t.Parallel()
	c := NewConfigurator(logr.Discard())
	cluster := config.ClusterSpec{
		Settings: map[string]any{
			"write-kubeconfig-mode": "0640",
			"selinux":               true,
		},
	}

	raw, err := c.RenderConfig(config.RoleServer, cluster, testNode(), "", "")
	require.NoError(t, err)
	doc := unmarshalDoc(t, raw)

	assert.Equal(t, "0640", doc["write-kubeconfig-mode"])
	assert.Equal(t, true, doc["selinux"])
}

func TestRenderRegistries(t *testing.T) {
	t.Parallel()
	c := NewConfigurator(logr.Discard())

	raw, err := c.RenderRegistries(config.ClusterSpec{})
	require.NoError(t, err)
	assert.Nil(t, raw)

	raw, err = c.RenderRegistries(config.ClusterSpec{Registry: map[string]any{
		"mirrors": map[string]any{"docker.io": map[string]any{"endpoint": []string{"https://registry.internal:5000"}}},
	}})
	require.NoError(t, err)
	assert.Contains(t, string(raw), "registry.internal:5000")
}

func TestServiceName(t *testing.T) {
	t.Parallel()
	c := NewConfigurator(logr.Discard())
	assert.Equal(t, "rke2-server", c.ServiceName(config.RoleServer))
	assert.Equal(t, "rke2-agent", c.ServiceName(config.RoleAgent))
}

func TestInstall_Server(t *testing.T) {
	t.Parallel()
	sess := testutil.NewFakeSession("10.0.0.10")
	osh, err := osfamily.Get("rhel")
	require.NoError(t, err)
	c := NewConfigurator(logr.Discard())

	require.NoError(t, c.Install(context.Background(), sess, osh, config.RoleServer,
		[]byte("cluster-init: true\n"), nil, "/opt/rke2"))

	// Config lands via staged upload, never via shell-quoted content.
	require.Len(t, sess.Uploads, 1)
	assert.Equal(t, "/tmp/airgapctl.staged", sess.Uploads[0].RemotePath)
	assert.NotEmpty(t, sess.CommandMatching("install -m 600 /tmp/airgapctl.staged /etc/rancher/rke2/config.yaml"))
	assert.NotEmpty(t, sess.CommandMatching("rm -f /tmp/airgapctl.staged"))
	for _, cmd := range sess.Commands {
		assert.NotContains(t, cmd, "cluster-init", "config content must not appear on a command line")
	}

	assert.NotEmpty(t, sess.CommandMatching("cp /opt/rke2/systemd/rke2-server.service /etc/systemd/system/rke2-server.service"))
	assert.NotEmpty(t, sess.CommandMatching("systemctl daemon-reload"))
	assert.NotEmpty(t, sess.CommandMatching("systemctl enable rke2-server.service"))

	// All four control-plane ports plus the rule reload.
	for _, port := range []string{"9345/tcp", "6443/tcp", "8472/udp", "10250/tcp"} {
		assert.NotEmpty(t, sess.CommandMatching("--add-port="+port), "port %s must be opened", port)
	}
	assert.NotEmpty(t, sess.CommandMatching("firewall-cmd --reload"))
}

func TestInstall_AgentSkipsFirewall(t *testing.T) {
	t.Parallel()
	sess := testutil.NewFakeSession("10.0.0.20")
	osh, err := osfamily.Get("rhel")
	require.NoError(t, err)
	c := NewConfigurator(logr.Discard())

	require.NoError(t, c.Install(context.Background(), sess, osh, config.RoleAgent,
		[]byte("server: https://10.0.0.10:9345\n"), nil, "/opt/rke2"))

	assert.Empty(t, sess.CommandMatching("firewall-cmd"))
	assert.NotEmpty(t, sess.CommandMatching("systemctl enable rke2-agent.service"))
}

func TestInstall_WritesRegistries(t *testing.T) {
	t.Parallel()
	sess := testutil.NewFakeSession("10.0.0.10")
	osh, err := osfamily.Get("rhel")
	require.NoError(t, err)
	c := NewConfigurator(logr.Discard())

	require.NoError(t, c.Install(context.Background(), sess, osh, config.RoleAgent,
		[]byte("a: 1\n"), []byte("mirrors: {}\n"), "/opt/rke2"))

	assert.Len(t, sess.Uploads, 2)
	assert.NotEmpty(t, sess.CommandMatching("/etc/rancher/rke2/registries.yaml"))
}

func TestInstall_BenignFirewallStateTolerated(t *testing.T) {
	t.Parallel()
	sess := testutil.NewFakeSession("10.0.0.10")
	sess.Respond("--add-port=9345/tcp", remote.CommandResult{ExitCode: 11, Stderr: "Warning: ALREADY_ENABLED: 9345:tcp"})
	osh, err := osfamily.Get("rhel")
	require.NoError(t, err)
	c := NewConfigurator(logr.Discard())

	require.NoError(t, c.Install(context.Background(), sess, osh, config.RoleServer,
		[]byte("a: 1\n"), nil, "/opt/rke2"))
}

func TestStart(t *testing.T) {
	t.Parallel()
	sess := testutil.NewFakeSession("10.0.0.10")
	c := NewConfigurator(logr.Discard())

	require.NoError(t, c.Start(context.Background(), sess, config.RoleServer))
	assert.Equal(t, []string{"systemctl start rke2-server.service"}, sess.Commands)
	assert.Len(t, sess.Elevated, 1)
}

func TestStart_Failure(t *testing.T) {
	t.Parallel()
	sess := testutil.NewFakeSession("10.0.0.10")
	sess.Respond("systemctl start", remote.CommandResult{ExitCode: 1, Stderr: "Job for rke2-server.service failed"})
	c := NewConfigurator(logr.Discard())

	err := c.Start(context.Background(), sess, config.RoleServer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rke2-server.service")
}
