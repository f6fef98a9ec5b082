package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/hostsentry/internal/domain"
	"github.com/hamed0406/hostsentry/internal/probe"
)

type staticProbe struct {
	report domain.Report
	err    error
	delay  time.Duration
}

func (p *staticProbe) Run(ctx context.Context) (domain.Report, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return domain.Report{}, ctx.Err()
		}
	}
	return p.report, p.err
}

type panicProbe struct{}

func (p *panicProbe) Run(context.Context) (domain.Report, error) { panic("boom") }

func entry(id string, p probe.Probe) probe.Entry {
	return probe.Entry{ID: id, Name: id, Description: id, Category: domain.CategorySystem, Probe: p}
}

func TestRunAll_IsolatesFailures(t *testing.T) {
	reg, err := probe.NewRegistry(
		entry("a", &staticProbe{err: errors.New("exec blew up")}),
		entry("b", &staticProbe{report: domain.Report{Status: domain.StatusPass, Message: "fine"}}),
		entry("c", &panicProbe{}),
	)
	if err != nil {
		t.Fatal(err)
	}

	rs := New(zap.NewNop(), reg, time.Second, 0).RunAll(context.Background())

	if len(rs.Checks) != 3 || rs.TotalChecks != 3 {
		t.Fatalf("want 3 checks, got %d/%d", len(rs.Checks), rs.TotalChecks)
	}
	// registry order preserved
	if rs.Checks[0].ID != "a" || rs.Checks[1].ID != "b" || rs.Checks[2].ID != "c" {
		t.Fatalf("order wrong: %s %s %s", rs.Checks[0].ID, rs.Checks[1].ID, rs.Checks[2].ID)
	}
	if rs.Checks[0].Status != domain.StatusError {
		t.Fatalf("a status = %s want error", rs.Checks[0].Status)
	}
	if rs.Checks[1].Status != domain.StatusPass || rs.Checks[1].Message != "fine" {
		t.Fatalf("b unaffected check failed: %+v", rs.Checks[1])
	}
	if rs.Checks[2].Status != domain.StatusError {
		t.Fatalf("c status = %s want error (panic captured)", rs.Checks[2].Status)
	}
	// errors excluded from tallies
	if rs.Passed != 1 || rs.Warnings != 0 || rs.Critical != 0 || rs.Info != 0 {
		t.Fatalf("tallies wrong: %+v", rs)
	}
	// round(1*100/3) = 33
	if rs.OverallScore != 33 {
		t.Fatalf("score = %d want 33", rs.OverallScore)
	}
}

func TestRunAll_PerfectScoreOnlyWhenAllPassOrInfo(t *testing.T) {
	reg, _ := probe.NewRegistry(
		entry("a", &staticProbe{report: domain.Report{Status: domain.StatusPass}}),
		entry("b", &staticProbe{report: domain.Report{Status: domain.StatusInfo}}),
	)
	rs := New(zap.NewNop(), reg, time.Second, 0).RunAll(context.Background())
	if rs.OverallScore != 100 {
		t.Fatalf("score = %d want 100", rs.OverallScore)
	}

	reg2, _ := probe.NewRegistry(
		entry("a", &staticProbe{report: domain.Report{Status: domain.StatusPass}}),
		entry("b", &staticProbe{report: domain.Report{Status: domain.StatusWarning}}),
	)
	rs2 := New(zap.NewNop(), reg2, time.Second, 0).RunAll(context.Background())
	if rs2.OverallScore == 100 {
		t.Fatal("score must not be 100 with a warning present")
	}
}

func TestRunOne(t *testing.T) {
	reg, _ := probe.NewRegistry(
		entry("ssh", &staticProbe{report: domain.Report{Status: domain.StatusWarning, Message: "1 issue"}}),
	)
	agg := New(zap.NewNop(), reg, time.Second, 0)

	r, err := agg.RunOne(context.Background(), "ssh")
	if err != nil {
		t.Fatalf("run one: %v", err)
	}
	if r.ID != "ssh" || r.Status != domain.StatusWarning {
		t.Fatalf("bad report: %+v", r)
	}

	_, err = agg.RunOne(context.Background(), "nope")
	if !errors.Is(err, probe.ErrUnknownCheck) {
		t.Fatalf("want ErrUnknownCheck, got %v", err)
	}
}

func TestRunAll_ProbeTimeoutBecomesErrorReport(t *testing.T) {
	reg, _ := probe.NewRegistry(
		entry("slow", &staticProbe{delay: 500 * time.Millisecond, report: domain.Report{Status: domain.StatusPass}}),
	)
	rs := New(zap.NewNop(), reg, 20*time.Millisecond, 0).RunAll(context.Background())
	if rs.Checks[0].Status != domain.StatusError {
		t.Fatalf("status = %s want error on timeout", rs.Checks[0].Status)
	}
}
