package probe

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hamed0406/hostsentry/internal/cmdexec"
	"github.com/hamed0406/hostsentry/internal/domain"
	"github.com/hamed0406/hostsentry/internal/platform"
)

// OpenPorts parses the listening-socket table. A port is exposed when bound
// to a wildcard address; inside an isolated NAT network (WSL2) exposure
// downgrades to informational because the isolation layer blocks outside
// reachability.
type OpenPorts struct {
	Runner   cmdexec.Runner
	Platform platform.Platform
}

type listener struct {
	Addr    string `json:"addr"`
	Port    int    `json:"port"`
	Process string `json:"process,omitempty"`
}

func (l listener) exposed() bool {
	switch l.Addr {
	case "0.0.0.0", "::", "*", "":
		return true
	}
	return false
}

func (p *OpenPorts) Run(ctx context.Context) (domain.Report, error) {
	out, tool, err := listSockets(ctx, p.Runner, p.Platform)
	if err != nil {
		return domain.Report{}, fmt.Errorf("list sockets: %w", err)
	}

	listeners := parseListeners(out)
	var exposed []listener
	for _, l := range listeners {
		if l.exposed() {
			exposed = append(exposed, l)
		}
	}

	natIsolated := p.Platform.IsolatedNAT()
	r := domain.Report{
		Status: domain.StatusPass,
		Details: map[string]any{
			"tool":        tool,
			"available":   true,
			"listeners":   listeners,
			"exposed":     exposed,
			"natIsolated": natIsolated,
		},
	}
	switch {
	case len(exposed) == 0:
		r.Message = fmt.Sprintf("%d listening port(s), none exposed beyond loopback", len(listeners))
	case natIsolated:
		r.Status = domain.StatusInfo
		r.Message = fmt.Sprintf("%d wildcard-bound port(s), but the NAT virtual network prevents external reachability", len(exposed))
	default:
		r.Status = domain.StatusWarning
		r.Message = fmt.Sprintf("%d port(s) exposed on all interfaces", len(exposed))
		for _, l := range exposed {
			r.Recommendations = append(r.Recommendations, domain.Recommendation{
				Severity: domain.SeverityMedium,
				Message:  fmt.Sprintf("port %d (%s) is bound to %s; bind to localhost or firewall it", l.Port, l.Process, wildcardLabel(l.Addr)),
			})
		}
	}
	return r, nil
}

// listSockets runs the platform's socket-listing tool. A tool that runs but
// exits nonzero is a failed probe, not an empty port list; the two must never
// look alike.
func listSockets(ctx context.Context, runner cmdexec.Runner, plat platform.Platform) (string, string, error) {
	name, args := socketCommand(runner, plat)
	out, err := runner.Run(ctx, name, args...)
	if err != nil {
		return "", name, err
	}
	if out.ExitCode != 0 {
		detail := strings.TrimSpace(out.Stderr)
		if detail == "" {
			detail = strings.TrimSpace(out.Stdout)
		}
		return "", name, fmt.Errorf("%s exited %d: %s", name, out.ExitCode, detail)
	}
	return out.Stdout, name, nil
}

// socketCommand picks per platform: macOS netstat has no -tlnp and takes
// -p <protocol> instead.
func socketCommand(runner cmdexec.Runner, plat platform.Platform) (string, []string) {
	switch plat.OS {
	case "windows":
		return "netstat", []string{"-ano"}
	case "darwin":
		return "netstat", []string{"-anv", "-p", "tcp"}
	}
	if _, err := runner.LookPath("ss"); err == nil {
		return "ss", []string{"-tlnp"}
	}
	return "netstat", []string{"-tlnp"}
}

// parseListeners is deliberately tolerant of ss and netstat layouts: for
// every LISTEN line it takes the first field that splits into host + numeric
// port.
func parseListeners(out string) []listener {
	var ls []listener
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "LISTEN") {
			continue
		}
		fields := strings.Fields(line)
		for _, f := range fields {
			host, port, ok := splitAddrPort(f)
			if !ok {
				continue
			}
			ls = append(ls, listener{Addr: host, Port: port, Process: processName(fields)})
			break
		}
	}
	return ls
}

// splitAddrPort handles "0.0.0.0:22", "[::]:22", "*:22" and the macOS
// "*.22" form. Peer columns like "0.0.0.0:*" are rejected by the numeric
// port requirement.
func splitAddrPort(s string) (string, int, bool) {
	idx := strings.LastIndexAny(s, ":.")
	if idx <= 0 {
		return "", 0, false
	}
	port, err := strconv.Atoi(s[idx+1:])
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, false
	}
	host := strings.Trim(s[:idx], "[]")
	return host, port, true
}

func processName(fields []string) string {
	for _, f := range fields {
		// ss -p renders users:(("sshd",pid=123,fd=3))
		if strings.HasPrefix(f, "users:((\"") {
			rest := strings.TrimPrefix(f, "users:((\"")
			if end := strings.Index(rest, "\""); end > 0 {
				return rest[:end]
			}
		}
		// netstat -p renders 123/sshd
		if i := strings.Index(f, "/"); i > 0 {
			if _, err := strconv.Atoi(f[:i]); err == nil {
				return f[i+1:]
			}
		}
	}
	return ""
}

func wildcardLabel(addr string) string {
	if addr == "::" {
		return "all IPv6 interfaces"
	}
	return "all interfaces"
}
