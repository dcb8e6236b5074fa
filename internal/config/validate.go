package config

import (
	"fmt"
	"net"
)

// Validate checks structural requirements that do not depend on handler
// availability. Distribution and OS support are checked at registry lookup
// time so new variants do not require edits here.
func (c *Config) Validate() error {
	if c.Cluster.Name == "" {
		return &ValidationError{Field: "cluster.name", Msg: "is required"}
	}
	if c.Cluster.Distribution == "" {
		return &ValidationError{Field: "cluster.distribution", Msg: "is required"}
	}
	if c.OS == "" {
		return &ValidationError{Field: "os", Msg: "cluster-wide OS family is required"}
	}
	if len(c.Nodes.Servers) == 0 {
		return &ValidationError{Field: "nodes.servers", Msg: "at least one server is required"}
	}
	if c.Cluster.Bundle.Path == "" {
		return &ValidationError{Field: "cluster.bundle.path", Msg: "is required"}
	}
	if c.OnFailure != "" && c.OnFailure != FailFast && c.OnFailure != ContinueOnError {
		return &ValidationError{Field: "on_failure", Msg: fmt.Sprintf("must be %q or %q", FailFast, ContinueOnError)}
	}

	if err := validateCIDR("cluster.cluster_cidr", c.Cluster.ClusterCIDR); err != nil {
		return err
	}
	if err := validateCIDR("cluster.service_cidr", c.Cluster.ServiceCIDR); err != nil {
		return err
	}

	for i, n := range c.Nodes.Servers {
		if err := validateNode(fmt.Sprintf("nodes.servers[%d]", i), n); err != nil {
			return err
		}
	}
	for i, n := range c.Nodes.Agents {
		if err := validateNode(fmt.Sprintf("nodes.agents[%d]", i), n); err != nil {
			return err
		}
	}

	if c.Cluster.Bundle.Source != "" && c.Objstore == nil {
		return &ValidationError{Field: "objstore", Msg: "required when cluster.bundle.source is set"}
	}

	return nil
}

func validateNode(field string, n Node) error {
	if n.Hostname == "" {
		return &ValidationError{Field: field + ".hostname", Msg: "is required"}
	}
	if n.IP == "" {
		return &ValidationError{Field: field + ".ip", Msg: "is required"}
	}
	if net.ParseIP(n.IP) == nil {
		return &ValidationError{Field: field + ".ip", Msg: fmt.Sprintf("%q is not a valid IP address", n.IP)}
	}
	if n.User == "" {
		return &ValidationError{Field: field + ".user", Msg: "is required"}
	}
	if n.SSHKey == "" {
		return &ValidationError{Field: field + ".ssh_key", Msg: "is required"}
	}
	return nil
}

func validateCIDR(field, cidr string) error {
	if cidr == "" {
		return nil
	}
	if _, _, err := net.ParseCIDR(cidr); err != nil {
		return &ValidationError{Field: field, Msg: fmt.Sprintf("%q is not a valid CIDR", cidr)}
	}
	return nil
}
