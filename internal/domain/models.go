package domain

// Status classifies the overall outcome of one check run.
// Precedence for tallying: critical > warning > info > pass. Error is an
// orthogonal non-scoring outcome (the probe itself failed, not the host).
type Status string

const (
	StatusPass     Status = "pass"
	StatusInfo     Status = "info"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
	StatusError    Status = "error"
)

// Severity grades a single recommendation. It is deliberately a different
// vocabulary from Status: a report is classified once, but individual findings
// inside it are triaged on their own scale and may diverge.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Category is descriptive only; it never affects scoring.
type Category string

const (
	CategoryNetwork     Category = "network"
	CategorySecurity    Category = "security"
	CategorySystem      Category = "system"
	CategoryApplication Category = "application"
	CategoryHardware    Category = "hardware"
)

type Recommendation struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Fix describes one remediation attached to a check. AutoFix means the fix
// dispatcher owns an executable action for ID; otherwise only the manual
// guidance applies.
type Fix struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	AutoFix     bool     `json:"autoFix"`
	Script      string   `json:"script,omitempty"`
	Command     string   `json:"command,omitempty"`
	ManualSteps []string `json:"manualSteps,omitempty"`
}

// Report is the normalized output of one probe run. ID, Name, Description and
// Category are stamped by the registry, not the probe.
type Report struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Category        Category         `json:"category"`
	Status          Status           `json:"status"`
	Message         string           `json:"message"`
	Details         map[string]any   `json:"details,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	Fixes           []Fix            `json:"fixes,omitempty"`
}

// Escalate returns the more severe of the report's current status and s,
// following the pass < info < warning < critical precedence. Error is never
// produced by escalation; it only comes from a failed probe.
func (r *Report) Escalate(s Status) {
	if statusRank(s) > statusRank(r.Status) {
		r.Status = s
	}
}

func statusRank(s Status) int {
	switch s {
	case StatusPass:
		return 0
	case StatusInfo:
		return 1
	case StatusWarning:
		return 2
	case StatusCritical:
		return 3
	default:
		return -1
	}
}

// SeverityFor is the conventional mapping from report status to finding
// severity. Probes use it as a default but are free to diverge.
func SeverityFor(s Status) Severity {
	switch s {
	case StatusCritical:
		return SeverityCritical
	case StatusWarning:
		return SeverityMedium
	default:
		return SeverityInfo
	}
}
