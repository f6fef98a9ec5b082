package probe

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hamed0406/hostsentry/internal/domain"
	"github.com/hamed0406/hostsentry/internal/platform"
)

// Permissions audits a fixed list of sensitive paths against a maximum
// permitted mode. Loose system paths escalate to critical, loose user paths
// to warning; a missing path is normal absence, not a finding.
type Permissions struct {
	Platform platform.Platform

	// test seams; nil means the real host
	Stat    func(string) (fs.FileInfo, error)
	HomeDir string
}

type pathRule struct {
	path    string
	maxMode fs.FileMode
	system  bool
}

func (p *Permissions) rules() []pathRule {
	home := p.HomeDir
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	rules := []pathRule{
		{filepath.Join(home, ".ssh"), 0o700, false},
		{filepath.Join(home, ".ssh", "authorized_keys"), 0o600, false},
		{filepath.Join(home, ".gnupg"), 0o700, false},
		{filepath.Join(home, ".config", "hostsentry"), 0o700, false},
	}
	if p.Platform.OS != "windows" {
		rules = append(rules,
			pathRule{"/etc/shadow", 0o640, true},
			pathRule{"/etc/passwd", 0o644, true},
		)
	}
	return rules
}

func (p *Permissions) Run(ctx context.Context) (domain.Report, error) {
	stat := p.Stat
	if stat == nil {
		stat = os.Stat
	}

	r := domain.Report{Status: domain.StatusPass}
	var loose []string
	var chmods []string
	checked, missing := 0, 0

	for _, rule := range p.rules() {
		info, err := stat(rule.path)
		if err != nil {
			missing++
			continue
		}
		checked++
		actual := info.Mode().Perm()
		if excess := actual &^ rule.maxMode; excess != 0 {
			loose = append(loose, fmt.Sprintf("%s is %04o (max %04o)", rule.path, actual, rule.maxMode))
			chmods = append(chmods, fmt.Sprintf("chmod %04o %s", rule.maxMode, rule.path))
			severity := domain.SeverityMedium
			if rule.system {
				severity = domain.SeverityHigh
				r.Escalate(domain.StatusCritical)
			} else {
				r.Escalate(domain.StatusWarning)
			}
			r.Recommendations = append(r.Recommendations, domain.Recommendation{
				Severity: severity,
				Message:  fmt.Sprintf("tighten %s to %04o", rule.path, rule.maxMode),
			})
		}
	}

	r.Details = map[string]any{
		"available":    true,
		"checkedPaths": checked,
		"missingPaths": missing,
		"loosePaths":   loose,
	}
	if len(loose) == 0 {
		r.Message = fmt.Sprintf("%d sensitive path(s) within permitted modes", checked)
		return r, nil
	}
	r.Message = fmt.Sprintf("%d sensitive path(s) looser than permitted", len(loose))
	r.Fixes = append(r.Fixes, domain.Fix{
		ID:          "permissions.tighten",
		Name:        "Tighten file permissions",
		Description: "Resets each flagged path to its maximum permitted mode.",
		AutoFix:     true,
		Command:     strings.Join(chmods, " && "),
	})
	return r, nil
}
