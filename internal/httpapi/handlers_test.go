package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/hostsentry/internal/aggregate"
	"github.com/hamed0406/hostsentry/internal/domain"
	"github.com/hamed0406/hostsentry/internal/fix"
	"github.com/hamed0406/hostsentry/internal/probe"
	"github.com/hamed0406/hostsentry/internal/sensors"
)

type scriptedProbe struct {
	report domain.Report
	err    error
}

func (p scriptedProbe) Run(context.Context) (domain.Report, error) { return p.report, p.err }

type scriptedSensors struct {
	reading sensors.Reading
	err     error
}

func (s scriptedSensors) Read(context.Context) (sensors.Reading, error) { return s.reading, s.err }
func (s scriptedSensors) Name() string                                  { return "scripted" }

func testServer(t *testing.T, src sensors.Source) (*Server, *fix.Dispatcher) {
	t.Helper()
	logger := zap.NewNop()
	reg, err := probe.NewRegistry(
		probe.Entry{ID: "alpha", Name: "Alpha", Description: "d", Category: domain.CategorySecurity,
			Probe: scriptedProbe{report: domain.Report{Status: domain.StatusPass, Message: "ok"}}},
		probe.Entry{ID: "beta", Name: "Beta", Description: "d", Category: domain.CategoryNetwork,
			Probe: scriptedProbe{report: domain.Report{Status: domain.StatusWarning, Message: "exposed"}}},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	agg := aggregate.New(logger, reg, time.Second, 0)
	fixes := fix.NewDispatcher(logger)
	return NewServer(logger, agg, fixes, src), fixes
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t, scriptedSensors{})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestRunAllChecks(t *testing.T) {
	s, _ := testServer(t, scriptedSensors{})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/checks")
	if err != nil {
		t.Fatalf("GET /api/checks: %v", err)
	}
	defer resp.Body.Close()

	var rs domain.ResultSet
	if err := json.NewDecoder(resp.Body).Decode(&rs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rs.TotalChecks != 2 || rs.Passed != 1 || rs.Warnings != 1 {
		t.Fatalf("tallies wrong: %+v", rs)
	}
	if rs.OverallScore != 75 { // (1*100 + 1*50) / 2
		t.Fatalf("score = %d, want 75", rs.OverallScore)
	}
	if rs.Checks[0].ID != "alpha" || rs.Checks[1].ID != "beta" {
		t.Fatalf("registry order lost: %+v", rs.Checks)
	}
}

func TestRunOneCheck(t *testing.T) {
	s, _ := testServer(t, scriptedSensors{})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/checks/beta")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var r domain.Report
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.ID != "beta" || r.Status != domain.StatusWarning {
		t.Fatalf("report wrong: %+v", r)
	}
}

func TestRunOneCheck_UnknownIs404(t *testing.T) {
	s, _ := testServer(t, scriptedSensors{})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/checks/nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(body["error"], "unknown check") {
		t.Fatalf("error body = %v", body)
	}
}

func TestApplyFix_UnknownIs404(t *testing.T) {
	s, _ := testServer(t, scriptedSensors{})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/fixes/nope", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestApplyFix_FailureIsStill200(t *testing.T) {
	s, fixes := testServer(t, scriptedSensors{})
	if err := fixes.Register("broken", func(context.Context, fix.Params) (fix.Outcome, error) {
		return fix.Outcome{}, errors.New("ufw exited 1")
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/fixes/broken", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (failure is an outcome, not a fault)", resp.StatusCode)
	}
	var out fix.Outcome
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Success || out.Message != "ufw exited 1" {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestApplyFix_ParamsReachAction(t *testing.T) {
	s, fixes := testServer(t, scriptedSensors{})
	var got string
	if err := fixes.Register("services.disable", func(_ context.Context, p fix.Params) (fix.Outcome, error) {
		got = p.String("service")
		return fix.Outcome{Success: true, Message: "disabled"}, nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/fixes/services.disable", "application/json",
		strings.NewReader(`{"service":"vsftpd"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if got != "vsftpd" {
		t.Fatalf("param not delivered, got %q", got)
	}
}

func TestApplyFix_MalformedBodyIs400(t *testing.T) {
	s, fixes := testServer(t, scriptedSensors{})
	ran := false
	if err := fixes.Register("x", func(context.Context, fix.Params) (fix.Outcome, error) {
		ran = true
		return fix.Outcome{}, nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/fixes/x", "application/json", strings.NewReader("not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if ran {
		t.Fatal("action must not run on a malformed body")
	}
}

func TestTemperature(t *testing.T) {
	cpu := 54.5
	s, _ := testServer(t, scriptedSensors{reading: sensors.Reading{Source: "lhm", CPUTempC: &cpu}})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/temperature")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var r sensors.Reading
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.Source != "lhm" || r.CPUTempC == nil || *r.CPUTempC != 54.5 {
		t.Fatalf("reading = %+v", r)
	}
}

func TestTemperature_SourceFailureIs502(t *testing.T) {
	s, _ := testServer(t, scriptedSensors{err: errors.New("bridge unreachable")})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/temperature")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
}
