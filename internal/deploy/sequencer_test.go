package deploy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/airgapctl/internal/config"
	"github.com/imamik/airgapctl/internal/distro"
	"github.com/imamik/airgapctl/internal/osfamily"
	"github.com/imamik/airgapctl/internal/remote"
	"github.com/imamik/airgapctl/internal/testutil"
)

// fakeDistro records handler invocations per host.
type fakeDistro struct {
	mu sync.Mutex

	validateErr   error
	prepareErrs   map[string]error
	configureErrs map[string]error

	prepareHosts   []string
	configureCalls []configureCall
	startHosts     []string
	gpuHosts       []string
	healthHosts    []string
	uninstallHosts []string
}

type configureCall struct {
	host          string
	role          config.Role
	initializerIP string
	token         string
}

func (f *fakeDistro) Name() string      { return "fake" }
func (f *fakeDistro) TokenPath() string { return "/var/lib/fake/node-token" }

func (f *fakeDistro) ValidateRequirements(*config.Config) error { return f.validateErr }

func (f *fakeDistro) PrepareNode(_ context.Context, sess remote.Session, _ osfamily.Handler, _ *config.Config, _ config.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prepareHosts = append(f.prepareHosts, sess.Host())
	return f.prepareErrs[sess.Host()]
}

func (f *fakeDistro) ConfigureService(_ context.Context, sess remote.Session, _ osfamily.Handler, _ *config.Config, _ config.Node, role config.Role, initializerIP, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configureCalls = append(f.configureCalls, configureCall{
		host: sess.Host(), role: role, initializerIP: initializerIP, token: token,
	})
	return f.configureErrs[sess.Host()]
}

func (f *fakeDistro) StartService(_ context.Context, sess remote.Session, _ config.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startHosts = append(f.startHosts, sess.Host())
	return nil
}

func (f *fakeDistro) ProvisionGPU(_ context.Context, sess remote.Session, _ osfamily.Handler, _ *config.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gpuHosts = append(f.gpuHosts, sess.Host())
	return nil
}

func (f *fakeDistro) HealthCheck(_ context.Context, sess remote.Session) (distro.Health, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthHosts = append(f.healthHosts, sess.Host())
	return distro.Health{ServiceActive: true}, nil
}

func (f *fakeDistro) Uninstall(_ context.Context, sess remote.Session, _ osfamily.Handler, _ config.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uninstallHosts = append(f.uninstallHosts, sess.Host())
	return nil
}

func fleetConfig() *config.Config {
	return &config.Config{
		OS: "rhel",
		Cluster: config.ClusterSpec{
			Name:         "test",
			Distribution: "rke2",
			Bundle:       config.BundleSpec{Path: "/opt/bundle.tar.gz"},
		},
		Nodes: config.NodeList{
			Servers: []config.Node{
				{Hostname: "s1", IP: "10.0.0.10", User: "deploy", SSHKey: "/keys/id"},
				{Hostname: "s2", IP: "10.0.0.11", User: "deploy", SSHKey: "/keys/id"},
			},
			Agents: []config.Node{
				{Hostname: "a1", IP: "10.0.0.20", User: "deploy", SSHKey: "/keys/id"},
				{Hostname: "a2", IP: "10.0.0.21", User: "deploy", SSHKey: "/keys/id", GPU: true},
			},
		},
	}
}

func withToken(dialer *testutil.FakeDialer, initIP, token string) {
	dialer.SessionFor(initIP).Respond("cat /var/lib/fake/node-token", remote.CommandResult{Stdout: token + "\n"})
}

func fastToken() RunOption {
	return WithTokenRetry(2, time.Millisecond)
}

func TestRunWithHandler_FullFleet(t *testing.T) {
	t.Parallel()
	cfg := fleetConfig()
	dialer := testutil.NewFakeDialer()
	withToken(dialer, "10.0.0.10", "join-token-value")
	fd := &fakeDistro{}

	result, err := RunWithHandler(context.Background(), cfg, dialer, fd, logr.Discard(), fastToken())
	require.NoError(t, err)

	// 4 success entries, one per node.
	require.Len(t, result.Nodes, 4)
	for _, n := range result.Nodes {
		assert.True(t, n.Succeeded(), "node %s should succeed", n.Hostname)
	}
	assert.False(t, result.Failed())

	// Initializer processed first, then servers, then agents.
	assert.Equal(t, []string{"10.0.0.10", "10.0.0.11", "10.0.0.20", "10.0.0.21"}, fd.prepareHosts)
	assert.True(t, result.Nodes[0].Initializer)

	// GPU provisioning invoked exactly once, for the flagged agent.
	assert.Equal(t, []string{"10.0.0.21"}, fd.gpuHosts)
	gpuNode := result.Nodes[3]
	assert.True(t, gpuNode.GPUProvisioned)
	assert.NoError(t, gpuNode.GPUErr)

	// Health check invoked exactly twice, once per server.
	assert.Equal(t, []string{"10.0.0.10", "10.0.0.11"}, fd.healthHosts)
	require.Len(t, result.Checks, 2)
}

func TestRunWithHandler_TokenPropagation(t *testing.T) {
	t.Parallel()
	cfg := fleetConfig()
	dialer := testutil.NewFakeDialer()
	withToken(dialer, "10.0.0.10", "K10deadbeef::server:cafe")
	fd := &fakeDistro{}

	_, err := RunWithHandler(context.Background(), cfg, dialer, fd, logr.Discard(), fastToken())
	require.NoError(t, err)

	require.Len(t, fd.configureCalls, 4)
	init := fd.configureCalls[0]
	assert.Empty(t, init.token, "initializer gets no token")

	for _, call := range fd.configureCalls[1:] {
		assert.Equal(t, "K10deadbeef::server:cafe", call.token, "joiner %s token mismatch", call.host)
		assert.Equal(t, "10.0.0.10", call.initializerIP)
	}
}

func TestRunWithHandler_EmptyTokenFailsRun(t *testing.T) {
	t.Parallel()
	cfg := fleetConfig()
	dialer := testutil.NewFakeDialer()
	// Token file reads back empty.
	dialer.SessionFor("10.0.0.10").Respond("cat /var/lib/fake/node-token", remote.CommandResult{Stdout: "  \n"})
	fd := &fakeDistro{}

	result, err := RunWithHandler(context.Background(), cfg, dialer, fd, logr.Discard(), fastToken())
	require.Error(t, err)

	var terr *TokenRetrievalError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "s1", terr.Host)

	// No joiner was configured.
	require.Len(t, fd.configureCalls, 1)
	assert.True(t, result.Failed())
}

func TestRunWithHandler_ValidationFailureOpensNoSessions(t *testing.T) {
	t.Parallel()
	cfg := fleetConfig()
	dialer := testutil.NewFakeDialer()
	fd := &fakeDistro{validateErr: errors.New("bundle missing")}

	_, err := RunWithHandler(context.Background(), cfg, dialer, fd, logr.Discard(), fastToken())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Validating phase failed")
	assert.Zero(t, dialer.DialCount())
}

func TestRun_UnsupportedDistributionOpensNoSessions(t *testing.T) {
	t.Parallel()
	cfg := fleetConfig()
	cfg.Cluster.Distribution = "openshift"
	dialer := testutil.NewFakeDialer()

	_, err := Run(context.Background(), cfg, dialer, logr.Discard(), fastToken())
	require.Error(t, err)

	var uerr *distro.UnsupportedError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "openshift", uerr.Name)
	assert.Zero(t, dialer.DialCount())
}

func TestRunWithHandler_UnsupportedNodeOSOpensNoSessions(t *testing.T) {
	t.Parallel()
	cfg := fleetConfig()
	cfg.Nodes.Agents[1].OS = "gentoo"
	dialer := testutil.NewFakeDialer()
	fd := &fakeDistro{}

	_, err := RunWithHandler(context.Background(), cfg, dialer, fd, logr.Discard(), fastToken())
	require.Error(t, err)

	var uerr *osfamily.UnsupportedError
	require.ErrorAs(t, err, &uerr)
	assert.Zero(t, dialer.DialCount())
}

func TestRunWithHandler_FailFastStopsAtFirstJoinerFailure(t *testing.T) {
	t.Parallel()
	cfg := fleetConfig()
	dialer := testutil.NewFakeDialer()
	withToken(dialer, "10.0.0.10", "tok")
	fd := &fakeDistro{prepareErrs: map[string]error{"10.0.0.11": errors.New("disk full")}}

	result, err := RunWithHandler(context.Background(), cfg, dialer, fd, logr.Discard(), fastToken())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s2")

	// Agents were never processed.
	require.Len(t, result.Nodes, 2)
	assert.True(t, result.Nodes[0].Succeeded())
	assert.False(t, result.Nodes[1].Succeeded())
	assert.Empty(t, fd.gpuHosts)
}

func TestRunWithHandler_ContinueOnErrorProcessesAllNodes(t *testing.T) {
	t.Parallel()
	cfg := fleetConfig()
	cfg.OnFailure = config.ContinueOnError
	dialer := testutil.NewFakeDialer()
	withToken(dialer, "10.0.0.10", "tok")
	fd := &fakeDistro{configureErrs: map[string]error{"10.0.0.11": errors.New("unit broken")}}

	result, err := RunWithHandler(context.Background(), cfg, dialer, fd, logr.Discard(), fastToken())
	require.NoError(t, err)

	require.Len(t, result.Nodes, 4)
	assert.True(t, result.Failed())
	assert.False(t, result.Nodes[1].Succeeded())
	assert.True(t, result.Nodes[2].Succeeded())
	assert.True(t, result.Nodes[3].Succeeded())
}

func TestRunWithHandler_ConnectionFailureIsFatalForNode(t *testing.T) {
	t.Parallel()
	cfg := fleetConfig()
	dialer := testutil.NewFakeDialer()
	withToken(dialer, "10.0.0.10", "tok")
	dialer.FailHost("10.0.0.20", errors.New("no route to host"))
	fd := &fakeDistro{}

	result, err := RunWithHandler(context.Background(), cfg, dialer, fd, logr.Discard(), fastToken())
	require.Error(t, err)

	var cerr *remote.ConnectionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "10.0.0.20", cerr.Host)
	assert.True(t, result.Failed())
}

func TestRunWithHandler_SessionsClosedOnAllPaths(t *testing.T) {
	t.Parallel()
	cfg := fleetConfig()
	dialer := testutil.NewFakeDialer()
	withToken(dialer, "10.0.0.10", "tok")
	fd := &fakeDistro{prepareErrs: map[string]error{"10.0.0.20": errors.New("boom")}}

	_, err := RunWithHandler(context.Background(), cfg, dialer, fd, logr.Discard(), fastToken())
	require.Error(t, err)

	for _, host := range []string{"10.0.0.10", "10.0.0.11", "10.0.0.20"} {
		sess := dialer.SessionFor(host)
		assert.Positive(t, sess.CloseCount, "session for %s must be closed", host)
	}
}

func TestUninstallWithHandler_Force(t *testing.T) {
	t.Parallel()
	cfg := fleetConfig()
	dialer := testutil.NewFakeDialer()
	fd := &fakeDistro{}

	result, err := UninstallWithHandler(context.Background(), cfg, dialer, fd, logr.Discard(), true)
	require.NoError(t, err)

	// One uninstall call per node, regardless of order.
	assert.ElementsMatch(t, []string{"10.0.0.10", "10.0.0.11", "10.0.0.20", "10.0.0.21"}, fd.uninstallHosts)
	assert.Len(t, result.Nodes, 4)
}

func TestUninstallWithHandler_ForceContinuesPastUnreachableNode(t *testing.T) {
	t.Parallel()
	cfg := fleetConfig()
	dialer := testutil.NewFakeDialer()
	dialer.FailHost("10.0.0.11", errors.New("down"))
	fd := &fakeDistro{}

	result, err := UninstallWithHandler(context.Background(), cfg, dialer, fd, logr.Discard(), true)
	require.NoError(t, err)

	assert.Len(t, fd.uninstallHosts, 3)
	assert.Len(t, result.Nodes, 4)
	assert.True(t, result.Failed())
}

func TestUninstallWithHandler_NoForceStopsOnFailure(t *testing.T) {
	t.Parallel()
	cfg := fleetConfig()
	dialer := testutil.NewFakeDialer()
	dialer.FailHost("10.0.0.10", errors.New("down"))
	fd := &fakeDistro{}

	result, err := UninstallWithHandler(context.Background(), cfg, dialer, fd, logr.Discard(), false)
	require.Error(t, err)
	assert.Len(t, result.Nodes, 1)
	assert.Empty(t, fd.uninstallHosts)
}
