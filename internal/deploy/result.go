package deploy

import (
	"fmt"

	"github.com/imamik/airgapctl/internal/config"
	"github.com/imamik/airgapctl/internal/distro"
)

// NodeResult is the outcome of processing one node.
type NodeResult struct {
	Hostname    string
	IP          string
	Role        config.Role
	Initializer bool
	Err         error

	// GPUProvisioned is set when the nested GPU step ran for this node.
	GPUProvisioned bool
	GPUErr         error
}

// Succeeded reports whether the node's mandatory steps completed.
func (r NodeResult) Succeeded() bool { return r.Err == nil }

// HealthResult is the outcome of a post-install check on one server.
type HealthResult struct {
	Hostname string
	Health   distro.Health
	Err      error
}

// Result aggregates per-node outcomes for one run.
type Result struct {
	Nodes  []NodeResult
	Checks []HealthResult
}

// NewResult returns an empty result.
func NewResult() *Result {
	return &Result{}
}

// Record appends a node outcome.
func (r *Result) Record(nr NodeResult) {
	r.Nodes = append(r.Nodes, nr)
}

// Failed reports whether any mandatory node step failed.
func (r *Result) Failed() bool {
	for _, n := range r.Nodes {
		if !n.Succeeded() {
			return true
		}
	}
	return false
}

// Summary renders a per-node report with causing output for diagnosis.
func (r *Result) Summary() string {
	out := ""
	for _, n := range r.Nodes {
		status := "ok"
		if n.Err != nil {
			status = fmt.Sprintf("failed: %v", n.Err)
		}
		marker := ""
		if n.Initializer {
			marker = " (initializer)"
		}
		out += fmt.Sprintf("%s [%s]%s: %s\n", n.Hostname, n.Role, marker, status)
		if n.GPUProvisioned {
			gpuStatus := "ok"
			if n.GPUErr != nil {
				gpuStatus = fmt.Sprintf("failed: %v", n.GPUErr)
			}
			out += fmt.Sprintf("  gpu: %s\n", gpuStatus)
		}
	}
	for _, c := range r.Checks {
		status := "not active"
		if c.Err != nil {
			status = fmt.Sprintf("check failed: %v", c.Err)
		} else if c.Health.ServiceActive {
			status = "active"
		}
		out += fmt.Sprintf("%s health: %s\n", c.Hostname, status)
	}
	return out
}
