package probe

import (
	"github.com/hamed0406/hostsentry/internal/cmdexec"
	"github.com/hamed0406/hostsentry/internal/domain"
	"github.com/hamed0406/hostsentry/internal/platform"
	"github.com/hamed0406/hostsentry/internal/sensors"
)

// DefaultRegistry wires the fixed check set. The probe list is static by
// design; adding a check means adding it here.
func DefaultRegistry(runner cmdexec.Runner, plat platform.Platform, src sensors.Source) (*Registry, error) {
	return NewRegistry(
		Entry{
			ID:          "firewall",
			Name:        "Firewall",
			Description: "Verifies that at least one host firewall mechanism is active.",
			Category:    domain.CategoryNetwork,
			Probe:       &Firewall{Runner: runner, Platform: plat},
		},
		Entry{
			ID:          "open-ports",
			Name:        "Open ports",
			Description: "Lists listening sockets and flags wildcard-bound services.",
			Category:    domain.CategoryNetwork,
			Probe:       &OpenPorts{Runner: runner, Platform: plat},
		},
		Entry{
			ID:          "ssh",
			Name:        "SSH configuration",
			Description: "Audits sshd directives against the hardening baseline.",
			Category:    domain.CategorySecurity,
			Probe:       &SSH{Runner: runner, Platform: plat},
		},
		Entry{
			ID:          "permissions",
			Name:        "File permissions",
			Description: "Checks sensitive paths against their maximum permitted modes.",
			Category:    domain.CategorySecurity,
			Probe:       &Permissions{Platform: plat},
		},
		Entry{
			ID:          "services",
			Name:        "Running services",
			Description: "Cross-references processes and sockets against the service risk table.",
			Category:    domain.CategorySecurity,
			Probe:       &Services{Runner: runner, Platform: plat},
		},
		Entry{
			ID:          "network",
			Name:        "Network exposure",
			Description: "Audits interface addressing, IP forwarding and NAT isolation.",
			Category:    domain.CategoryNetwork,
			Probe:       &NetworkExposure{Platform: plat},
		},
		Entry{
			ID:          "updates",
			Name:        "System updates",
			Description: "Counts pending package updates and flags security updates.",
			Category:    domain.CategorySystem,
			Probe:       &Updates{Runner: runner, Platform: plat},
		},
		Entry{
			ID:          "hardware",
			Name:        "Hardware health",
			Description: "Reads temperatures and fan speeds against safe thresholds.",
			Category:    domain.CategoryHardware,
			Probe:       &Hardware{Sensors: src},
		},
		Entry{
			ID:          "gateway",
			Name:        "Gateway audit",
			Description: "Runs the agent gateway's own security audit and merges contexts.",
			Category:    domain.CategoryApplication,
			Probe:       &GatewayAudit{Runner: runner, Platform: plat},
		},
	)
}
