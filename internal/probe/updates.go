package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/hamed0406/hostsentry/internal/cmdexec"
	"github.com/hamed0406/hostsentry/internal/domain"
	"github.com/hamed0406/hostsentry/internal/platform"
)

// Updates counts upgradable packages via the detected package manager.
// Security-flagged updates are critical, plain updates a warning.
type Updates struct {
	Runner   cmdexec.Runner
	Platform platform.Platform
}

func (p *Updates) Run(ctx context.Context) (domain.Report, error) {
	mgr := p.Platform.PkgManager
	if mgr == "" {
		return domain.Report{
			Status:  domain.StatusInfo,
			Message: "no supported package manager detected",
			Details: map[string]any{"available": false},
		}, nil
	}

	var upgradable, security int
	var err error
	switch mgr {
	case "apt":
		upgradable, security, err = p.checkApt(ctx)
	case "dnf", "yum":
		upgradable, security, err = p.checkDnf(ctx, mgr)
	case "pacman":
		upgradable, err = p.countLines(ctx, "checkupdates")
	case "brew":
		upgradable, err = p.countLines(ctx, "brew", "outdated")
	}
	if err != nil {
		return domain.Report{}, fmt.Errorf("query %s: %w", mgr, err)
	}

	r := domain.Report{
		Status: domain.StatusPass,
		Details: map[string]any{
			"available":       true,
			"packageManager":  mgr,
			"upgradable":      upgradable,
			"securityUpdates": security,
		},
	}
	switch {
	case security > 0:
		r.Status = domain.StatusCritical
		r.Message = fmt.Sprintf("%d security update(s) pending", security)
		r.Recommendations = append(r.Recommendations, domain.Recommendation{
			Severity: domain.SeverityCritical,
			Message:  "install pending security updates now",
		})
	case upgradable > 0:
		r.Status = domain.StatusWarning
		r.Message = fmt.Sprintf("%d package update(s) pending", upgradable)
		r.Recommendations = append(r.Recommendations, domain.Recommendation{
			Severity: domain.SeverityMedium,
			Message:  "bring the system up to date to pick up bug and hardening fixes",
		})
	default:
		r.Message = "system is up to date"
	}
	if upgradable > 0 || security > 0 {
		r.Fixes = append(r.Fixes, upgradeFix(mgr))
	}
	return r, nil
}

func (p *Updates) checkApt(ctx context.Context) (upgradable, security int, err error) {
	out, err := p.Runner.Run(ctx, "apt", "list", "--upgradable")
	if err != nil {
		return 0, 0, err
	}
	for _, line := range strings.Split(out.Stdout, "\n") {
		if !strings.Contains(line, "upgradable") {
			continue
		}
		upgradable++
		if strings.Contains(line, "-security") {
			security++
		}
	}
	return upgradable, security, nil
}

// checkDnf relies on the documented exit code: 100 means updates pending.
func (p *Updates) checkDnf(ctx context.Context, mgr string) (upgradable, security int, err error) {
	out, err := p.Runner.Run(ctx, mgr, "-q", "check-update")
	if err != nil {
		return 0, 0, err
	}
	if out.ExitCode == 100 {
		for _, line := range strings.Split(out.Stdout, "\n") {
			if len(strings.Fields(line)) >= 3 {
				upgradable++
			}
		}
	}
	sec, err := p.Runner.Run(ctx, mgr, "-q", "updateinfo", "list", "security")
	if err == nil {
		for _, line := range strings.Split(sec.Stdout, "\n") {
			if strings.TrimSpace(line) != "" {
				security++
			}
		}
	}
	return upgradable, security, nil
}

func (p *Updates) countLines(ctx context.Context, name string, args ...string) (int, error) {
	out, err := p.Runner.Run(ctx, name, args...)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, line := range strings.Split(out.Stdout, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n, nil
}

func upgradeFix(mgr string) domain.Fix {
	fix := domain.Fix{
		ID:          "updates.upgrade",
		Name:        "Install pending updates",
		Description: "Upgrades all pending packages through the system package manager.",
		AutoFix:     true,
	}
	switch mgr {
	case "apt":
		fix.Command = "apt-get update && apt-get upgrade -y"
	case "dnf", "yum":
		fix.Command = mgr + " upgrade -y"
	case "pacman":
		fix.Command = "pacman -Syu --noconfirm"
	case "brew":
		fix.Command = "brew upgrade"
	}
	return fix
}
