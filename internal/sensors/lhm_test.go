package sensors

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"
)

const samplePayload = `{
  "Text": "Sensor",
  "Children": [{
    "Text": "DESKTOP-1",
    "Children": [
      {
        "Text": "AMD Ryzen 7 5800X",
        "ImageURL": "images_icon/cpu.png",
        "Children": [
          {"Text": "Temperatures", "Children": [
            {"Text": "Core (Tctl/Tdie)", "Value": "54.5 °C"},
            {"Text": "CCD1", "Value": "48,0 °C"}
          ]},
          {"Text": "Fans", "Children": [
            {"Text": "CPU Fan", "Value": "1250 RPM"}
          ]}
        ]
      },
      {
        "Text": "NVIDIA GeForce RTX 3070",
        "ImageURL": "images_icon/nvidia.png",
        "Children": [
          {"Text": "Temperatures", "Children": [
            {"Text": "GPU Core", "Value": "62.0 °C"}
          ]},
          {"Text": "Fans", "Children": [
            {"Text": "GPU Fan", "Value": "0 RPM"}
          ]}
        ]
      }
    ]
  }]
}`

func TestParseLHM(t *testing.T) {
	r, err := parseLHM([]byte(samplePayload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r.CPUTempC == nil || *r.CPUTempC != 54.5 {
		t.Fatalf("cpu temp = %v want 54.5", r.CPUTempC)
	}
	if r.GPUTempC == nil || *r.GPUTempC != 62.0 {
		t.Fatalf("gpu temp = %v want 62", r.GPUTempC)
	}
	if len(r.Fans) != 2 {
		t.Fatalf("fans = %d want 2", len(r.Fans))
	}
	// The GPU fan at 0 RPM must still carry the GPU's temperature so the
	// hardware probe can apply the stopped-fan rule.
	var gpuFan *Fan
	for i := range r.Fans {
		if r.Fans[i].Name == "GPU Fan" {
			gpuFan = &r.Fans[i]
		}
	}
	if gpuFan == nil || gpuFan.RPM != 0 {
		t.Fatalf("gpu fan missing or wrong: %+v", r.Fans)
	}
	if gpuFan.TempC == nil || *gpuFan.TempC != 62.0 {
		t.Fatalf("gpu fan temp = %v want 62", gpuFan.TempC)
	}
}

func TestParseValue_CommaForms(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"54.5 °C", 54.5, true},
		{"48,0 °C", 48.0, true},   // decimal comma locale
		{"1,234 RPM", 1234, true}, // grouping comma, not a decimal
		{"1,234,567 RPM", 1234567, true},
		{"0 RPM", 0, true},
		{"- °C", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseValue(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseValue(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseLHM_EmptyTree(t *testing.T) {
	if _, err := parseLHM([]byte(`{"Text":"Sensor","Children":[]}`)); err == nil {
		t.Fatal("expected error for sensor-less payload")
	}
}

func TestLHMClient_ReadsBridge(t *testing.T) {
	var gotAuth bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, p, ok := r.BasicAuth(); ok && u == "admin" && p == "secret" {
			gotAuth = true
		}
		if r.URL.Path != "/data.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(samplePayload))
	}))
	defer ts.Close()

	u, _ := url.Parse(ts.URL)
	port, _ := strconv.Atoi(u.Port())
	c := NewLHMClient([]string{u.Hostname()}, port, "admin", "secret", 2*time.Second)

	r, err := c.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !gotAuth {
		t.Fatal("basic auth not sent")
	}
	if r.CPUTempC == nil {
		t.Fatal("missing cpu temp")
	}
}

func TestLHMClient_UnreachableHostFallsThrough(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePayload))
	}))
	defer ts.Close()

	u, _ := url.Parse(ts.URL)
	port, _ := strconv.Atoi(u.Port())
	// First host refuses connections; second is the working bridge.
	c := NewLHMClient([]string{"127.0.0.1", u.Hostname()}, port, "", "", 500*time.Millisecond)
	c.hosts[0] = "192.0.2.1" // TEST-NET, guaranteed unreachable

	r, err := c.Read(context.Background())
	if err != nil {
		t.Fatalf("expected fallback host to serve, got %v", err)
	}
	if r.Source != "lhm" {
		t.Fatalf("source = %q", r.Source)
	}
}

type stubSource struct {
	name string
	r    Reading
	err  error
}

func (s *stubSource) Name() string                          { return s.name }
func (s *stubSource) Read(context.Context) (Reading, error) { return s.r, s.err }

func TestMulti_FallsBackAndCombinesErrors(t *testing.T) {
	temp := 50.0
	m := &Multi{Sources: []Source{
		&stubSource{name: "a", err: errors.New("bridge down")},
		&stubSource{name: "b", r: Reading{Source: "b", CPUTempC: &temp}},
	}}
	r, err := m.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if r.Source != "b" {
		t.Fatalf("source = %q", r.Source)
	}

	m = &Multi{Sources: []Source{
		&stubSource{name: "a", err: errors.New("bridge down")},
		&stubSource{name: "b", err: errors.New("no hwmon")},
	}}
	_, err = m.Read(context.Background())
	if !errors.Is(err, ErrNoSource) {
		t.Fatalf("want ErrNoSource, got %v", err)
	}
}
