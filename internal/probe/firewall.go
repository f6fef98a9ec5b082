package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/hamed0406/hostsentry/internal/cmdexec"
	"github.com/hamed0406/hostsentry/internal/domain"
	"github.com/hamed0406/hostsentry/internal/platform"
)

// Firewall checks every firewall mechanism the platform can carry and counts
// the active ones. Zero active mechanisms is critical; an installed-but-off
// mechanism next to an active one is a warning.
type Firewall struct {
	Runner   cmdexec.Runner
	Platform platform.Platform
}

type fwMechanism struct {
	name      string
	available bool
	active    bool
}

func (p *Firewall) Run(ctx context.Context) (domain.Report, error) {
	var mechs []fwMechanism
	switch p.Platform.OS {
	case "linux":
		mechs = []fwMechanism{
			p.checkUFW(ctx),
			p.checkFirewalld(ctx),
			p.checkIptables(ctx),
		}
	case "darwin":
		mechs = []fwMechanism{
			p.checkPF(ctx),
			p.checkAppFirewall(ctx),
		}
	case "windows":
		mechs = p.checkNetsh(ctx)
	default:
		return domain.Report{
			Status:  domain.StatusInfo,
			Message: fmt.Sprintf("no firewall support for %s", p.Platform.OS),
			Details: map[string]any{"available": false},
		}, nil
	}

	active, disabled := 0, []string{}
	details := map[string]any{}
	for _, m := range mechs {
		details[m.name] = map[string]any{"available": m.available, "active": m.active}
		if m.active {
			active++
		} else if m.available {
			disabled = append(disabled, m.name)
		}
	}
	details["activeMechanisms"] = active

	r := domain.Report{Status: domain.StatusPass, Details: details}
	switch {
	case active == 0:
		r.Status = domain.StatusCritical
		r.Message = "no active firewall mechanism found"
		r.Recommendations = append(r.Recommendations, domain.Recommendation{
			Severity: domain.SeverityCritical,
			Message:  "enable a host firewall; every listening service is currently unfiltered",
		})
		r.Fixes = append(r.Fixes, enableFirewallFix(p.Platform.OS))
	case len(disabled) > 0:
		r.Status = domain.StatusWarning
		r.Message = fmt.Sprintf("firewall active, but %s installed and disabled", strings.Join(disabled, ", "))
		r.Recommendations = append(r.Recommendations, domain.Recommendation{
			Severity: domain.SeverityMedium,
			Message:  "disabled firewall mechanisms invite accidental reliance; enable or remove them",
		})
	default:
		r.Message = fmt.Sprintf("%d firewall mechanism(s) active", active)
	}
	return r, nil
}

func (p *Firewall) checkUFW(ctx context.Context) fwMechanism {
	m := fwMechanism{name: "ufw"}
	if _, err := p.Runner.LookPath("ufw"); err != nil {
		return m
	}
	m.available = true
	out, err := p.Runner.Run(ctx, "ufw", "status")
	if err == nil && strings.Contains(out.Stdout, "Status: active") {
		m.active = true
	}
	return m
}

func (p *Firewall) checkFirewalld(ctx context.Context) fwMechanism {
	m := fwMechanism{name: "firewalld"}
	if _, err := p.Runner.LookPath("firewall-cmd"); err != nil {
		return m
	}
	m.available = true
	out, err := p.Runner.Run(ctx, "firewall-cmd", "--state")
	if err == nil && strings.TrimSpace(out.Stdout) == "running" {
		m.active = true
	}
	return m
}

// checkIptables counts real rules; chain policy lines (-P) alone mean an
// empty ruleset.
func (p *Firewall) checkIptables(ctx context.Context) fwMechanism {
	m := fwMechanism{name: "iptables"}
	if _, err := p.Runner.LookPath("iptables"); err != nil {
		return m
	}
	m.available = true
	out, err := p.Runner.Run(ctx, "iptables", "-S")
	if err != nil || out.ExitCode != 0 {
		return m
	}
	for _, line := range strings.Split(out.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "-P") {
			m.active = true
			break
		}
	}
	return m
}

func (p *Firewall) checkPF(ctx context.Context) fwMechanism {
	m := fwMechanism{name: "pf"}
	out, err := p.Runner.Run(ctx, "pfctl", "-s", "info")
	if err != nil {
		return m
	}
	m.available = true
	m.active = strings.Contains(out.Stdout, "Status: Enabled")
	return m
}

func (p *Firewall) checkAppFirewall(ctx context.Context) fwMechanism {
	m := fwMechanism{name: "applicationFirewall"}
	out, err := p.Runner.Run(ctx, "/usr/libexec/ApplicationFirewall/socketfilterfw", "--getglobalstate")
	if err != nil {
		return m
	}
	m.available = true
	m.active = strings.Contains(strings.ToLower(out.Stdout), "enabled")
	return m
}

// checkNetsh reads all Windows firewall profiles; each profile is its own
// mechanism so a single disabled profile surfaces as a warning.
func (p *Firewall) checkNetsh(ctx context.Context) []fwMechanism {
	out, err := p.Runner.Run(ctx, "netsh", "advfirewall", "show", "allprofiles")
	if err != nil {
		return []fwMechanism{{name: "windowsFirewall"}}
	}
	var mechs []fwMechanism
	profile := ""
	for _, line := range strings.Split(out.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasSuffix(line, "Profile Settings:") {
			profile = strings.ToLower(strings.Fields(line)[0]) + "Profile"
			continue
		}
		if profile != "" && strings.HasPrefix(line, "State") {
			state := strings.ToUpper(line)
			mechs = append(mechs, fwMechanism{
				name:      profile,
				available: true,
				active:    strings.Contains(state, "ON"),
			})
			profile = ""
		}
	}
	if len(mechs) == 0 {
		return []fwMechanism{{name: "windowsFirewall"}}
	}
	return mechs
}

func enableFirewallFix(goos string) domain.Fix {
	fix := domain.Fix{
		ID:          "firewall.enable",
		Name:        "Enable firewall",
		Description: "Turns on the host firewall with a default-deny inbound policy.",
		AutoFix:     true,
	}
	switch goos {
	case "linux":
		fix.Command = "ufw --force enable && ufw default deny incoming && ufw default allow outgoing && ufw allow ssh"
	case "darwin":
		fix.Command = "pfctl -e"
	case "windows":
		fix.Command = "netsh advfirewall set allprofiles state on"
	default:
		fix.AutoFix = false
		fix.ManualSteps = []string{"enable the platform firewall manually"}
	}
	return fix
}
