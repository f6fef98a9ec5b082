package fix

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hamed0406/hostsentry/internal/cmdexec"
	"github.com/hamed0406/hostsentry/internal/platform"
)

// RegisterDefaults wires the remediation catalog against a platform. Every
// autoFix id that probes emit must resolve here.
func RegisterDefaults(d *Dispatcher, runner cmdexec.Runner, plat platform.Platform) error {
	a := &actions{runner: runner, plat: plat}
	for id, fn := range map[string]Action{
		"firewall.enable":     a.enableFirewall,
		"ssh.harden":          a.hardenSSH,
		"permissions.tighten": a.tightenPermissions,
		"updates.upgrade":     a.upgradePackages,
		"services.disable":    a.disableService,
	} {
		if err := d.Register(id, fn); err != nil {
			return err
		}
	}
	return nil
}

type actions struct {
	runner cmdexec.Runner
	plat   platform.Platform
}

type step struct {
	name string
	args []string
}

// runSteps executes a fix's commands in order. There is no rollback: a
// failing step leaves the host in whatever state the command left it, and
// the outcome reports that one failure verbatim.
func (a *actions) runSteps(ctx context.Context, steps []step) (Outcome, error) {
	var output strings.Builder
	for _, s := range steps {
		out, err := a.runner.Run(ctx, s.name, s.args...)
		cmdline := s.name + " " + strings.Join(s.args, " ")
		output.WriteString(out.Stdout)
		if err != nil {
			return Outcome{}, fmt.Errorf("%s: %v", cmdline, err)
		}
		if out.ExitCode != 0 {
			detail := strings.TrimSpace(out.Stderr)
			if detail == "" {
				detail = strings.TrimSpace(out.Stdout)
			}
			return Outcome{}, fmt.Errorf("%s exited %d: %s", cmdline, out.ExitCode, detail)
		}
	}
	return Outcome{Success: true, Output: strings.TrimSpace(output.String())}, nil
}

func (a *actions) enableFirewall(ctx context.Context, _ Params) (Outcome, error) {
	var steps []step
	switch a.plat.OS {
	case "linux":
		steps = []step{
			{"ufw", []string{"--force", "enable"}},
			{"ufw", []string{"default", "deny", "incoming"}},
			{"ufw", []string{"default", "allow", "outgoing"}},
			{"ufw", []string{"allow", "ssh"}},
		}
	case "darwin":
		steps = []step{{"pfctl", []string{"-e"}}}
	case "windows":
		steps = []step{{"netsh", []string{"advfirewall", "set", "allprofiles", "state", "on"}}}
	default:
		return Outcome{}, fmt.Errorf("no firewall fix for %s", a.plat.OS)
	}
	out, err := a.runSteps(ctx, steps)
	if err != nil {
		// enabling an already-active pf returns nonzero; treat as no-op success
		if a.plat.OS == "darwin" && strings.Contains(err.Error(), "already enabled") {
			return Outcome{Success: true, Message: "firewall already enabled"}, nil
		}
		return Outcome{}, err
	}
	out.Message = "firewall enabled with default-deny inbound policy"
	return out, nil
}

func (a *actions) hardenSSH(ctx context.Context, _ Params) (Outcome, error) {
	if a.plat.OS == "windows" {
		return Outcome{}, fmt.Errorf("ssh hardening fix is not automated on windows")
	}
	const cfg = "/etc/ssh/sshd_config"
	steps := []step{
		{"sed", []string{"-i", "s/^#*PermitRootLogin.*/PermitRootLogin prohibit-password/", cfg}},
		{"sed", []string{"-i", "s/^#*PasswordAuthentication.*/PasswordAuthentication no/", cfg}},
		{"sed", []string{"-i", "s/^#*X11Forwarding.*/X11Forwarding no/", cfg}},
		{"sed", []string{"-i", "s/^#*MaxAuthTries.*/MaxAuthTries 3/", cfg}},
		{"systemctl", []string{"reload", "sshd"}},
	}
	out, err := a.runSteps(ctx, steps)
	if err != nil {
		return Outcome{}, err
	}
	out.Message = "sshd hardened and reloaded; keep your current session open and verify key login in a second one"
	return out, nil
}

func (a *actions) tightenPermissions(ctx context.Context, _ Params) (Outcome, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve home: %w", err)
	}
	steps := []step{
		{"chmod", []string{"700", filepath.Join(home, ".ssh")}},
		{"chmod", []string{"600", filepath.Join(home, ".ssh", "authorized_keys")}},
	}
	if a.plat.OS != "windows" {
		steps = append(steps, step{"chmod", []string{"640", "/etc/shadow"}})
	}
	out, err := a.runSteps(ctx, steps)
	if err != nil {
		return Outcome{}, err
	}
	out.Message = "sensitive paths reset to their permitted modes"
	return out, nil
}

func (a *actions) upgradePackages(ctx context.Context, _ Params) (Outcome, error) {
	var steps []step
	switch a.plat.PkgManager {
	case "apt":
		steps = []step{
			{"apt-get", []string{"update"}},
			{"apt-get", []string{"upgrade", "-y"}},
		}
	case "dnf", "yum":
		steps = []step{{a.plat.PkgManager, []string{"upgrade", "-y"}}}
	case "pacman":
		steps = []step{{"pacman", []string{"-Syu", "--noconfirm"}}}
	case "brew":
		steps = []step{{"brew", []string{"upgrade"}}}
	default:
		return Outcome{}, fmt.Errorf("no supported package manager detected")
	}
	out, err := a.runSteps(ctx, steps)
	if err != nil {
		return Outcome{}, err
	}
	out.Message = "pending updates installed; re-run the updates check to confirm"
	return out, nil
}

var serviceNameRe = regexp.MustCompile(`^[a-zA-Z0-9_.@-]+$`)

func (a *actions) disableService(ctx context.Context, params Params) (Outcome, error) {
	name := params.String("service")
	if name == "" {
		return Outcome{}, fmt.Errorf("missing required parameter %q", "service")
	}
	if !serviceNameRe.MatchString(name) {
		return Outcome{}, fmt.Errorf("invalid service name %q", name)
	}
	out, err := a.runSteps(ctx, []step{{"systemctl", []string{"disable", "--now", name}}})
	if err != nil {
		return Outcome{}, err
	}
	out.Message = name + " stopped and disabled"
	return out, nil
}
