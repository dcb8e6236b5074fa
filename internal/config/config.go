// Package config loads and validates the deployment configuration.
//
// The configuration names the cluster, selects a distribution and OS family,
// and lists the fleet: an ordered server list (the first entry initializes
// the cluster) and an agent list. It is immutable once loaded.
package config

// Config is the root deployment configuration.
type Config struct {
	Cluster   ClusterSpec `mapstructure:"cluster" yaml:"cluster"`
	OS        string      `mapstructure:"os" yaml:"os"`
	Nodes     NodeList    `mapstructure:"nodes" yaml:"nodes"`
	OnFailure string      `mapstructure:"on_failure" yaml:"on_failure,omitempty"`
	Objstore  *Objstore   `mapstructure:"objstore" yaml:"objstore,omitempty"`

	// ExtraTools are additional binaries from the bundle to place on the
	// first server (kubectl is always deployed there).
	ExtraTools []string `mapstructure:"extra_tools" yaml:"extra_tools,omitempty"`
}

// ClusterSpec describes cluster-wide identity and networking.
type ClusterSpec struct {
	Name         string   `mapstructure:"name" yaml:"name"`
	Distribution string   `mapstructure:"distribution" yaml:"distribution"`
	Domain       string   `mapstructure:"domain" yaml:"domain,omitempty"`
	ClusterCIDR  string   `mapstructure:"cluster_cidr" yaml:"cluster_cidr,omitempty"`
	ServiceCIDR  string   `mapstructure:"service_cidr" yaml:"service_cidr,omitempty"`
	CNI          []string `mapstructure:"cni" yaml:"cni,omitempty"`

	Bundle BundleSpec `mapstructure:"bundle" yaml:"bundle"`

	// Settings is a distribution-specific passthrough block rendered
	// verbatim into the node's service configuration document
	// (write-kubeconfig-mode, disable, selinux and friends).
	Settings map[string]any `mapstructure:"settings" yaml:"settings,omitempty"`

	// Registry configures container registry mirrors for the offline
	// image store (registries.yaml).
	Registry map[string]any `mapstructure:"registry" yaml:"registry,omitempty"`
}

// BundleSpec locates the airgapped distribution bundle.
type BundleSpec struct {
	// Path is the local path of the bundle archive. When Source is set the
	// archive is first fetched from the object store to this path.
	Path string `mapstructure:"path" yaml:"path"`

	// Source optionally names an s3://bucket/key in the internal object
	// store to fetch the bundle from before staging.
	Source string `mapstructure:"source" yaml:"source,omitempty"`

	// ExtractPath is where the bundle is unpacked on each node.
	ExtractPath string `mapstructure:"extract_path" yaml:"extract_path,omitempty"`

	// ImagesArchive is the container image archive inside the extracted
	// bundle, loaded into the runtime's offline image directory.
	ImagesArchive string `mapstructure:"images_archive" yaml:"images_archive,omitempty"`
}

// Objstore configures the in-LAN S3-compatible endpoint bundles are
// fetched from.
type Objstore struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Region    string `mapstructure:"region" yaml:"region,omitempty"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
}

// NodeList holds the fleet. Server order matters: the first server
// initializes the cluster, the rest join it.
type NodeList struct {
	Servers []Node `mapstructure:"servers" yaml:"servers"`
	Agents  []Node `mapstructure:"agents" yaml:"agents,omitempty"`
}

// Node describes one host.
type Node struct {
	Hostname string `mapstructure:"hostname" yaml:"hostname"`
	IP       string `mapstructure:"ip" yaml:"ip"`
	User     string `mapstructure:"user" yaml:"user"`
	SSHKey   string `mapstructure:"ssh_key" yaml:"ssh_key"`

	// OS overrides the cluster-wide OS family for this host.
	OS string `mapstructure:"os" yaml:"os,omitempty"`

	// GPU marks the node for GPU runtime provisioning.
	GPU bool `mapstructure:"gpu" yaml:"gpu,omitempty"`
}

// Role distinguishes control-plane servers from workload agents.
type Role string

// Node roles.
const (
	RoleServer Role = "server"
	RoleAgent  Role = "agent"
)

// Failure policies for joining nodes.
const (
	FailFast        = "fail-fast"
	ContinueOnError = "continue"
)

// DefaultExtractPath is used when bundle.extract_path is unset.
const DefaultExtractPath = "/opt/rke2"

// OSFor returns the effective OS family for a node, falling back to the
// cluster-wide default.
func (c *Config) OSFor(n Node) string {
	if n.OS != "" {
		return n.OS
	}
	return c.OS
}

// ExtractPath returns the configured extraction path or the default.
func (c *Config) ExtractPath() string {
	if c.Cluster.Bundle.ExtractPath != "" {
		return c.Cluster.Bundle.ExtractPath
	}
	return DefaultExtractPath
}

// FailFastEnabled reports whether a joining node's failure should abort
// the run. Fail-fast is the default policy.
func (c *Config) FailFastEnabled() bool {
	return c.OnFailure != ContinueOnError
}
