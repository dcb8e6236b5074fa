package deploy

import (
	"fmt"
	"strings"

	"github.com/imamik/airgapctl/internal/config"
)

// PlanEntry describes one node in a dry-run plan.
type PlanEntry struct {
	Hostname    string
	IP          string
	Role        config.Role
	OS          string
	Initializer bool
	GPU         bool
}

// Plan computes the processing order for a configuration without opening
// any session: servers in configured order (first is the initializer),
// then agents.
func Plan(cfg *config.Config) []PlanEntry {
	entries := make([]PlanEntry, 0, len(cfg.Nodes.Servers)+len(cfg.Nodes.Agents))
	for i, n := range cfg.Nodes.Servers {
		entries = append(entries, PlanEntry{
			Hostname:    n.Hostname,
			IP:          n.IP,
			Role:        config.RoleServer,
			OS:          cfg.OSFor(n),
			Initializer: i == 0,
		})
	}
	for _, n := range cfg.Nodes.Agents {
		entries = append(entries, PlanEntry{
			Hostname: n.Hostname,
			IP:       n.IP,
			Role:     config.RoleAgent,
			OS:       cfg.OSFor(n),
			GPU:      n.GPU,
		})
	}
	return entries
}

// FormatPlan renders a plan for console output.
func FormatPlan(entries []PlanEntry) string {
	var b strings.Builder
	for i, e := range entries {
		notes := make([]string, 0, 2)
		if e.Initializer {
			notes = append(notes, "initializer")
		}
		if e.GPU {
			notes = append(notes, "gpu")
		}
		suffix := ""
		if len(notes) > 0 {
			suffix = " [" + strings.Join(notes, ", ") + "]"
		}
		fmt.Fprintf(&b, "%d. %s (%s) %s/%s%s\n", i+1, e.Hostname, e.IP, e.Role, e.OS, suffix)
	}
	return b.String()
}
