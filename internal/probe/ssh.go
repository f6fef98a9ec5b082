package probe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hamed0406/hostsentry/internal/cmdexec"
	"github.com/hamed0406/hostsentry/internal/domain"
	"github.com/hamed0406/hostsentry/internal/platform"
)

// SSH passes immediately when no server runs (secure by absence); otherwise
// it audits a fixed directive set in the server config. Two or more
// deviations are critical, one is a warning.
type SSH struct {
	Runner   cmdexec.Runner
	Platform platform.Platform

	// test seams; nil means the real host
	ReadFile func(string) ([]byte, error)
	ReadDir  func(string) ([]os.DirEntry, error)
}

type sshIssue struct {
	directive string
	actual    string
	wanted    string
	severity  domain.Severity
}

func (p *SSH) Run(ctx context.Context) (domain.Report, error) {
	if !p.serverRunning(ctx) {
		return domain.Report{
			Status:  domain.StatusPass,
			Message: "no SSH server running",
			Details: map[string]any{"serverRunning": false},
		}, nil
	}

	cfg, path, err := p.loadConfig()
	if err != nil {
		return domain.Report{}, fmt.Errorf("read sshd config: %w", err)
	}

	issues := auditSSHConfig(cfg)
	r := domain.Report{
		Status: domain.StatusPass,
		Details: map[string]any{
			"serverRunning": true,
			"configPath":    path,
			"issueCount":    len(issues),
		},
	}
	for _, is := range issues {
		r.Recommendations = append(r.Recommendations, domain.Recommendation{
			Severity: is.severity,
			Message:  fmt.Sprintf("%s is %q; set it to %s", is.directive, is.actual, is.wanted),
		})
	}
	switch {
	case len(issues) >= 2:
		r.Status = domain.StatusCritical
		r.Message = fmt.Sprintf("%d insecure sshd directives", len(issues))
	case len(issues) == 1:
		r.Status = domain.StatusWarning
		r.Message = "1 insecure sshd directive"
	default:
		r.Message = "sshd configuration follows hardening baseline"
	}
	if len(issues) > 0 {
		r.Fixes = append(r.Fixes, domain.Fix{
			ID:          "ssh.harden",
			Name:        "Harden SSH configuration",
			Description: "Rewrites the flagged sshd directives to their secure values and reloads sshd.",
			AutoFix:     true,
			Script:      "harden-ssh.sh",
			ManualSteps: []string{
				"edit " + path,
				"set PermitRootLogin prohibit-password, PasswordAuthentication no, X11Forwarding no, MaxAuthTries 3",
				"reload sshd",
			},
		})
	}
	return r, nil
}

func (p *SSH) serverRunning(ctx context.Context) bool {
	if p.Platform.OS == "windows" {
		out, err := p.Runner.Run(ctx, "sc", "query", "sshd")
		return err == nil && strings.Contains(out.Stdout, "RUNNING")
	}
	out, err := p.Runner.Run(ctx, "pgrep", "-x", "sshd")
	return err == nil && out.ExitCode == 0 && strings.TrimSpace(out.Stdout) != ""
}

// loadConfig concatenates the main config with sshd_config.d drop-ins, the
// way sshd itself includes them.
func (p *SSH) loadConfig() (string, string, error) {
	readFile := p.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	readDir := p.ReadDir
	if readDir == nil {
		readDir = os.ReadDir
	}

	path := "/etc/ssh/sshd_config"
	if p.Platform.OS == "windows" {
		path = `C:\ProgramData\ssh\sshd_config`
	}
	b, err := readFile(path)
	if err != nil {
		return "", path, err
	}
	cfg := string(b)

	if entries, err := readDir(filepath.Dir(path) + "/sshd_config.d"); err == nil {
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".conf") {
				if extra, err := readFile(filepath.Dir(path) + "/sshd_config.d/" + e.Name()); err == nil {
					cfg += "\n" + string(extra)
				}
			}
		}
	}
	return cfg, path, nil
}

// auditSSHConfig flags directives explicitly set to insecure values. An
// unset directive is not a deviation; only what the admin wrote is judged.
func auditSSHConfig(cfg string) []sshIssue {
	d := parseSSHConfig(cfg)
	var issues []sshIssue

	if v, ok := d["permitrootlogin"]; ok && v == "yes" {
		issues = append(issues, sshIssue{"PermitRootLogin", v, "prohibit-password or no", domain.SeverityHigh})
	}
	if v, ok := d["passwordauthentication"]; ok && v == "yes" {
		issues = append(issues, sshIssue{"PasswordAuthentication", v, "no (key-based auth only)", domain.SeverityHigh})
	}
	if v, ok := d["pubkeyauthentication"]; ok && v == "no" {
		issues = append(issues, sshIssue{"PubkeyAuthentication", v, "yes", domain.SeverityMedium})
	}
	if v, ok := d["x11forwarding"]; ok && v == "yes" {
		issues = append(issues, sshIssue{"X11Forwarding", v, "no", domain.SeverityMedium})
	}
	if v, ok := d["maxauthtries"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 3 {
			issues = append(issues, sshIssue{"MaxAuthTries", v, "3 or fewer", domain.SeverityLow})
		}
	}
	return issues
}

// parseSSHConfig lowercases directive names and keeps the first occurrence,
// matching sshd's own first-wins semantics.
func parseSSHConfig(cfg string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(cfg, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		key := strings.ToLower(fields[0])
		if _, seen := out[key]; !seen {
			out[key] = strings.ToLower(fields[1])
		}
	}
	return out
}
