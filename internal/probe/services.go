package probe

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/hostsentry/internal/cmdexec"
	"github.com/hamed0406/hostsentry/internal/domain"
	"github.com/hamed0406/hostsentry/internal/platform"
)

//go:embed services.yaml
var servicesCatalog []byte

type riskEntry struct {
	Name      string `yaml:"name"`
	Risk      string `yaml:"risk"` // critical, high, medium, low
	Port      int    `yaml:"port"`
	Rationale string `yaml:"rationale"`
}

type riskTable struct {
	Services []riskEntry `yaml:"services"`
}

func loadRiskTable() (riskTable, error) {
	var t riskTable
	if err := yaml.Unmarshal(servicesCatalog, &t); err != nil {
		return t, fmt.Errorf("parse services catalog: %w", err)
	}
	return t, nil
}

// Services cross-references running processes and listening sockets against
// the embedded risk table. Critical-risk matches make the check critical,
// high-risk matches make it a warning.
type Services struct {
	Runner   cmdexec.Runner
	Platform platform.Platform
}

type serviceMatch struct {
	Name      string `json:"name"`
	Risk      string `json:"risk"`
	Rationale string `json:"rationale"`
	Via       string `json:"via"` // process or port
}

func (p *Services) Run(ctx context.Context) (domain.Report, error) {
	table, err := loadRiskTable()
	if err != nil {
		return domain.Report{}, err
	}

	procs, procsOK := p.processList(ctx)
	ports, portsErr := p.listeningPorts(ctx)

	seen := make(map[string]bool)
	var matches []serviceMatch
	for _, e := range table.Services {
		if procs[e.Name] && !seen[e.Name] {
			seen[e.Name] = true
			matches = append(matches, serviceMatch{e.Name, e.Risk, e.Rationale, "process"})
			continue
		}
		if e.Port != 0 && ports[e.Port] && !seen[e.Name] {
			seen[e.Name] = true
			matches = append(matches, serviceMatch{e.Name, e.Risk, e.Rationale, "port"})
		}
	}

	r := domain.Report{
		Status: domain.StatusPass,
		Details: map[string]any{
			"available":   procsOK,
			"portScan":    portsErr == nil,
			"catalogSize": len(table.Services),
			"matches":     matches,
		},
	}
	criticalN, highN := 0, 0
	for _, m := range matches {
		sev := domain.SeverityLow
		switch m.Risk {
		case "critical":
			criticalN++
			sev = domain.SeverityCritical
		case "high":
			highN++
			sev = domain.SeverityHigh
		case "medium":
			sev = domain.SeverityMedium
		}
		r.Recommendations = append(r.Recommendations, domain.Recommendation{
			Severity: sev,
			Message:  fmt.Sprintf("%s detected via %s: %s", m.Name, m.Via, m.Rationale),
		})
		if m.Risk == "critical" || m.Risk == "high" {
			r.Fixes = append(r.Fixes, domain.Fix{
				ID:          "services.disable",
				Name:        "Disable " + m.Name,
				Description: "Stops and disables the flagged service unit.",
				AutoFix:     true,
				Command:     "systemctl disable --now " + m.Name,
			})
		}
	}
	switch {
	case criticalN > 0:
		r.Status = domain.StatusCritical
		r.Message = fmt.Sprintf("%d critical-risk service(s) running", criticalN)
	case highN > 0:
		r.Status = domain.StatusWarning
		r.Message = fmt.Sprintf("%d high-risk service(s) running", highN)
	case len(matches) > 0:
		r.Status = domain.StatusInfo
		r.Message = fmt.Sprintf("%d lower-risk service(s) worth reviewing", len(matches))
	default:
		r.Message = "no risky services detected"
	}
	return r, nil
}

func (p *Services) processList(ctx context.Context) (map[string]bool, bool) {
	procs := make(map[string]bool)
	if p.Platform.OS == "windows" {
		out, err := p.Runner.Run(ctx, "tasklist", "/fo", "csv", "/nh")
		if err != nil {
			return procs, false
		}
		for _, line := range strings.Split(out.Stdout, "\n") {
			if name, ok := firstCSVField(line); ok {
				procs[strings.TrimSuffix(strings.ToLower(name), ".exe")] = true
			}
		}
		return procs, true
	}
	out, err := p.Runner.Run(ctx, "ps", "-eo", "comm=")
	if err != nil {
		return procs, false
	}
	for _, line := range strings.Split(out.Stdout, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			procs[name] = true
		}
	}
	return procs, true
}

// listeningPorts is the secondary match signal; the process list stays
// authoritative when the socket tool fails, and the failure is surfaced in
// the report details rather than read as zero open ports.
func (p *Services) listeningPorts(ctx context.Context) (map[int]bool, error) {
	ports := make(map[int]bool)
	out, _, err := listSockets(ctx, p.Runner, p.Platform)
	if err != nil {
		return ports, err
	}
	for _, l := range parseListeners(out) {
		ports[l.Port] = true
	}
	return ports, nil
}

func firstCSVField(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "\"") {
		return "", false
	}
	rest := line[1:]
	end := strings.Index(rest, "\"")
	if end <= 0 {
		return "", false
	}
	return rest[:end], true
}
