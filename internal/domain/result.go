package domain

import (
	"math"
	"time"
)

// ResultSet aggregates one full run. Error reports are excluded from all four
// tallies, which is why passed+info+warnings+critical can fall short of
// TotalChecks; the score treats an errored probe as contributing zero.
type ResultSet struct {
	Timestamp    time.Time `json:"timestamp"`
	TotalChecks  int       `json:"totalChecks"`
	Passed       int       `json:"passed"`
	Info         int       `json:"info"`
	Warnings     int       `json:"warnings"`
	Critical     int       `json:"critical"`
	OverallScore int       `json:"overallScore"`
	Checks       []Report  `json:"checks"`
}

// NewResultSet tallies reports and computes the overall score.
func NewResultSet(reports []Report) ResultSet {
	rs := ResultSet{
		Timestamp:   time.Now().UTC(),
		TotalChecks: len(reports),
		Checks:      reports,
	}
	for _, r := range reports {
		switch r.Status {
		case StatusPass:
			rs.Passed++
		case StatusInfo:
			rs.Info++
		case StatusWarning:
			rs.Warnings++
		case StatusCritical:
			rs.Critical++
		}
	}
	rs.OverallScore = Score(rs.Passed, rs.Info, rs.Warnings, rs.TotalChecks)
	return rs
}

// Score is a weighted pass rate, not a risk quantification: info counts the
// same as pass (informational findings are not penalized), warnings count
// half, critical and error count zero. The dashboard wants an at-a-glance
// percentage.
func Score(passed, info, warnings, total int) int {
	if total == 0 {
		return 100
	}
	raw := float64((passed+info)*100+warnings*50) / float64(total)
	return int(math.Round(raw))
}
