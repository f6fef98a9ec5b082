package domain

import (
	"encoding/json"
	"testing"
)

func TestScore(t *testing.T) {
	cases := []struct {
		name                          string
		passed, info, warnings, total int
		want                          int
	}{
		{"all pass", 9, 0, 0, 9, 100},
		{"info counts as pass", 5, 4, 0, 9, 100},
		{"mixed run", 5, 2, 1, 9, 83}, // round(750/9)
		{"all critical", 0, 0, 0, 9, 0},
		{"empty registry", 0, 0, 0, 0, 100},
		{"warnings half", 0, 0, 2, 4, 25},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Score(c.passed, c.info, c.warnings, c.total)
			if got != c.want {
				t.Fatalf("Score(%d,%d,%d,%d)=%d want %d", c.passed, c.info, c.warnings, c.total, got, c.want)
			}
			if got < 0 || got > 100 {
				t.Fatalf("score out of range: %d", got)
			}
		})
	}
}

func TestNewResultSet_TalliesExcludeErrors(t *testing.T) {
	rs := NewResultSet([]Report{
		{ID: "a", Status: StatusPass},
		{ID: "b", Status: StatusInfo},
		{ID: "c", Status: StatusWarning},
		{ID: "d", Status: StatusCritical},
		{ID: "e", Status: StatusError},
	})
	if rs.TotalChecks != 5 {
		t.Fatalf("total = %d", rs.TotalChecks)
	}
	if rs.Passed != 1 || rs.Info != 1 || rs.Warnings != 1 || rs.Critical != 1 {
		t.Fatalf("bad tallies: %+v", rs)
	}
	if rs.Passed+rs.Info+rs.Warnings+rs.Critical > rs.TotalChecks {
		t.Fatalf("tallies exceed total: %+v", rs)
	}
	// (1+1)*100 + 1*50 = 250; round(250/5) = 50
	if rs.OverallScore != 50 {
		t.Fatalf("score = %d want 50", rs.OverallScore)
	}
}

func TestEscalate(t *testing.T) {
	r := Report{Status: StatusPass}
	r.Escalate(StatusInfo)
	r.Escalate(StatusWarning)
	r.Escalate(StatusInfo) // never downgrades
	if r.Status != StatusWarning {
		t.Fatalf("status = %s want warning", r.Status)
	}
	r.Escalate(StatusCritical)
	if r.Status != StatusCritical {
		t.Fatalf("status = %s want critical", r.Status)
	}
}

func TestReport_JSONShape(t *testing.T) {
	r := Report{
		ID:       "firewall",
		Name:     "Firewall",
		Category: CategoryNetwork,
		Status:   StatusCritical,
		Message:  "no active firewall",
		Fixes: []Fix{{
			ID:      "firewall.enable",
			AutoFix: true,
			Command: "ufw --force enable",
		}},
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	fixes, ok := m["fixes"].([]any)
	if !ok || len(fixes) != 1 {
		t.Fatalf("fixes shape wrong: %v", m["fixes"])
	}
	fix := fixes[0].(map[string]any)
	if fix["autoFix"] != true {
		t.Fatalf("autoFix key wrong: %v", fix)
	}
}
