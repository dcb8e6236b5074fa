package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Sample returns a starter configuration for the given distribution and OS
// family, ready to be edited and fed to deploy.
func Sample(distribution, osFamily string) *Config {
	return &Config{
		OS: osFamily,
		Cluster: ClusterSpec{
			Name:         fmt.Sprintf("airgapped-%s-cluster", distribution),
			Distribution: distribution,
			Domain:       "internal.local",
			ClusterCIDR:  "10.42.0.0/16",
			ServiceCIDR:  "10.43.0.0/16",
			CNI:          []string{"canal"},
			Bundle: BundleSpec{
				Path:          fmt.Sprintf("/opt/bundles/%s-airgap-bundle.tar.gz", distribution),
				ExtractPath:   DefaultExtractPath,
				ImagesArchive: "images/rke2-images.linux-amd64.tar.zst",
			},
			Settings: map[string]any{
				"write-kubeconfig-mode": "0644",
			},
		},
		Nodes: NodeList{
			Servers: []Node{
				{Hostname: "server-1", IP: "10.0.0.10", User: "deploy", SSHKey: "~/.ssh/id_ed25519"},
				{Hostname: "server-2", IP: "10.0.0.11", User: "deploy", SSHKey: "~/.ssh/id_ed25519"},
			},
			Agents: []Node{
				{Hostname: "agent-1", IP: "10.0.0.20", User: "deploy", SSHKey: "~/.ssh/id_ed25519"},
			},
		},
		ExtraTools: []string{"k9s", "helm"},
	}
}

// MarshalSample renders a sample configuration as YAML.
func MarshalSample(distribution, osFamily string) ([]byte, error) {
	out, err := yaml.Marshal(Sample(distribution, osFamily))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sample config: %w", err)
	}
	return out, nil
}
