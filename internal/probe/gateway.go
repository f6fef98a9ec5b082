package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/hamed0406/hostsentry/internal/cmdexec"
	"github.com/hamed0406/hostsentry/internal/domain"
	"github.com/hamed0406/hostsentry/internal/platform"
)

// GatewayAudit delegates to the agent gateway's own audit CLI and parses its
// sectioned output. On WSL the tool may also be installed on the Windows
// side, so both execution contexts run and their results merge
// deterministically: union of issues, max of counts.
type GatewayAudit struct {
	Runner   cmdexec.Runner
	Platform platform.Platform
}

const gatewayTool = "openclaw"

type auditResult struct {
	CriticalCount int
	WarningCount  int
	Critical      []string
	Warnings      []string
	Info          []string
}

func (p *GatewayAudit) Run(ctx context.Context) (domain.Report, error) {
	native, nativeOK := p.audit(ctx, gatewayTool, "audit")

	var secondary auditResult
	secondaryOK := false
	if p.Platform.WSL {
		secondary, secondaryOK = p.audit(ctx, "powershell.exe", "-NoProfile", "-Command", gatewayTool+" audit")
	}

	if !nativeOK && !secondaryOK {
		return domain.Report{
			Status:  domain.StatusInfo,
			Message: fmt.Sprintf("%s not installed in any context", gatewayTool),
			Details: map[string]any{"available": false},
		}, nil
	}

	merged := native
	if nativeOK && secondaryOK {
		merged = mergeAudits(native, secondary)
	} else if secondaryOK {
		merged = secondary
	}

	r := domain.Report{
		Status: domain.StatusPass,
		Details: map[string]any{
			"available":        true,
			"nativeContext":    nativeOK,
			"secondaryContext": secondaryOK,
			"criticalIssues":   merged.Critical,
			"warningIssues":    merged.Warnings,
			"infoIssues":       merged.Info,
		},
	}
	for _, msg := range merged.Critical {
		r.Recommendations = append(r.Recommendations, domain.Recommendation{Severity: domain.SeverityCritical, Message: msg})
	}
	for _, msg := range merged.Warnings {
		r.Recommendations = append(r.Recommendations, domain.Recommendation{Severity: domain.SeverityMedium, Message: msg})
	}
	for _, msg := range merged.Info {
		r.Recommendations = append(r.Recommendations, domain.Recommendation{Severity: domain.SeverityInfo, Message: msg})
	}
	switch {
	case merged.CriticalCount > 0:
		r.Status = domain.StatusCritical
		r.Message = fmt.Sprintf("gateway audit found %d critical issue(s)", merged.CriticalCount)
	case merged.WarningCount > 0:
		r.Status = domain.StatusWarning
		r.Message = fmt.Sprintf("gateway audit found %d warning(s)", merged.WarningCount)
	default:
		r.Message = "gateway audit clean"
	}
	return r, nil
}

func (p *GatewayAudit) audit(ctx context.Context, name string, args ...string) (auditResult, bool) {
	out, err := p.Runner.Run(ctx, name, args...)
	if err != nil {
		return auditResult{}, false
	}
	res, err := parseAudit(out.Stdout)
	if err != nil {
		return auditResult{}, false
	}
	return res, true
}

// parseAudit reads the tool's sectioned text:
//
//	Audit summary: 3 issues (1 critical, 2 warnings)
//	CRITICAL:
//	 - gateway token stored world-readable
//	WARNING:
//	 - debug endpoint enabled
func parseAudit(out string) (auditResult, error) {
	var res auditResult
	sawSummary := false
	section := ""
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Audit summary:"):
			var total int
			if _, err := fmt.Sscanf(line, "Audit summary: %d issues (%d critical, %d warnings)",
				&total, &res.CriticalCount, &res.WarningCount); err != nil {
				return res, fmt.Errorf("malformed audit summary %q: %w", line, err)
			}
			sawSummary = true
		case line == "CRITICAL:":
			section = "critical"
		case line == "WARNING:":
			section = "warning"
		case line == "INFO:":
			section = "info"
		case strings.HasPrefix(line, "- "):
			item := strings.TrimPrefix(line, "- ")
			switch section {
			case "critical":
				res.Critical = append(res.Critical, item)
			case "warning":
				res.Warnings = append(res.Warnings, item)
			case "info":
				res.Info = append(res.Info, item)
			}
		}
	}
	if !sawSummary {
		return res, fmt.Errorf("no audit summary line in output")
	}
	// Itemized sections are authoritative when longer than the summary says.
	res.CriticalCount = maxInt(res.CriticalCount, len(res.Critical))
	res.WarningCount = maxInt(res.WarningCount, len(res.Warnings))
	return res, nil
}

// mergeAudits combines two execution contexts: union of issues in first-seen
// order, max of counts.
func mergeAudits(a, b auditResult) auditResult {
	critical := unionStrings(a.Critical, b.Critical)
	warnings := unionStrings(a.Warnings, b.Warnings)
	return auditResult{
		CriticalCount: maxInt(maxInt(a.CriticalCount, b.CriticalCount), len(critical)),
		WarningCount:  maxInt(maxInt(a.WarningCount, b.WarningCount), len(warnings)),
		Critical:      critical,
		Warnings:      warnings,
		Info:          unionStrings(a.Info, b.Info),
	}
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
