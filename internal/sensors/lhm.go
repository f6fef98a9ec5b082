package sensors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/multierr"

	"github.com/hamed0406/hostsentry/internal/platform"
)

const (
	lhmAttempts = 3
	lhmDelay    = 200 * time.Millisecond
	lhmMaxDelay = time.Second
)

// LHMClient polls a Libre Hardware Monitor web server (data.json endpoint).
// Multiple hosts are tried in order: on WSL2 the bridge usually runs on the
// Windows side, reachable via the virtual-network gateway rather than
// localhost.
type LHMClient struct {
	hosts    []string
	port     int
	username string
	password string
	client   *http.Client
}

func NewLHMClient(hosts []string, port int, username, password string, timeout time.Duration) *LHMClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &LHMClient{
		hosts:    hosts,
		port:     port,
		username: username,
		password: password,
		client:   &http.Client{Timeout: timeout},
	}
}

// Hosts returns the candidate bridge hosts for a platform: the configured
// host first, then the NAT gateway when the default would dead-end in WSL2.
func Hosts(configured string, p platform.Platform) []string {
	hosts := []string{configured}
	if configured == "localhost" && p.IsolatedNAT() {
		hosts = append(hosts, p.NATGateway)
	}
	return hosts
}

func (c *LHMClient) Name() string { return "lhm" }

func (c *LHMClient) Read(ctx context.Context) (Reading, error) {
	var errs error
	for _, host := range c.hosts {
		r, err := c.readHost(ctx, host)
		if err == nil {
			return r, nil
		}
		errs = multierr.Append(errs, fmt.Errorf("lhm %s: %w", host, err))
	}
	return Reading{}, errs
}

func (c *LHMClient) readHost(ctx context.Context, host string) (Reading, error) {
	url := fmt.Sprintf("http://%s:%d/data.json", host, c.port)
	body, err := retry.DoWithData(func() ([]byte, error) {
		return c.fetch(ctx, url)
	}, retry.Attempts(lhmAttempts), retry.Delay(lhmDelay), retry.MaxDelay(lhmMaxDelay))
	if err != nil {
		return Reading{}, err
	}
	return parseLHM(body)
}

func (c *LHMClient) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bridge returned %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

// lhmNode mirrors the bridge's tree: hardware nodes hold sensor-group nodes
// ("Temperatures", "Fans") whose children carry formatted values.
type lhmNode struct {
	Text     string    `json:"Text"`
	Value    string    `json:"Value"`
	ImageURL string    `json:"ImageURL"`
	Children []lhmNode `json:"Children"`
}

func parseLHM(body []byte) (Reading, error) {
	var root lhmNode
	if err := json.Unmarshal(body, &root); err != nil {
		return Reading{}, fmt.Errorf("decode bridge payload: %w", err)
	}

	r := Reading{Source: "lhm"}
	walkHardware(&root, func(hw lhmNode) {
		kind := hardwareKind(hw)
		maxTemp, fans := sensorGroups(hw)
		switch kind {
		case "cpu":
			r.CPUTempC = maxTempPtr(r.CPUTempC, maxTemp)
		case "gpu":
			r.GPUTempC = maxTempPtr(r.GPUTempC, maxTemp)
		}
		for _, f := range fans {
			f.TempC = maxTemp
			r.Fans = append(r.Fans, f)
		}
	})
	if r.CPUTempC == nil && r.GPUTempC == nil && len(r.Fans) == 0 {
		return Reading{}, fmt.Errorf("bridge payload had no recognizable sensors")
	}
	return r, nil
}

// walkHardware visits every node that carries sensor groups.
func walkHardware(n *lhmNode, visit func(lhmNode)) {
	hasGroups := false
	for _, c := range n.Children {
		if c.Text == "Temperatures" || c.Text == "Fans" {
			hasGroups = true
			break
		}
	}
	if hasGroups {
		visit(*n)
	}
	for i := range n.Children {
		walkHardware(&n.Children[i], visit)
	}
}

func hardwareKind(hw lhmNode) string {
	id := strings.ToLower(hw.ImageURL + " " + hw.Text)
	switch {
	case strings.Contains(id, "cpu") || strings.Contains(id, "ryzen") || strings.Contains(id, "intel core"):
		return "cpu"
	case strings.Contains(id, "gpu") || strings.Contains(id, "nvidia") || strings.Contains(id, "radeon") || strings.Contains(id, "ati"):
		return "gpu"
	default:
		return ""
	}
}

func sensorGroups(hw lhmNode) (maxTemp *float64, fans []Fan) {
	for _, group := range hw.Children {
		switch group.Text {
		case "Temperatures":
			for _, s := range group.Children {
				if v, ok := parseValue(s.Value); ok {
					maxTemp = maxTempPtr(maxTemp, &v)
				}
			}
		case "Fans":
			for _, s := range group.Children {
				if v, ok := parseValue(s.Value); ok {
					fans = append(fans, Fan{Name: s.Text, RPM: v})
				}
			}
		}
	}
	return maxTemp, fans
}

// parseValue reads the numeric prefix of bridge values like "54.5 °C". Commas
// are ambiguous: locales write decimal commas ("48,0 °C") while fan speeds can
// carry grouping commas ("1,234 RPM").
func parseValue(s string) (float64, bool) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(normalizeCommas(fields[0]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// normalizeCommas treats a single comma followed by at most two digits as a
// decimal separator; everything else is grouping and is stripped.
func normalizeCommas(num string) string {
	i := strings.IndexByte(num, ',')
	if i < 0 {
		return num
	}
	if strings.Count(num, ",") == 1 && len(num)-i-1 <= 2 {
		return strings.ReplaceAll(num, ",", ".")
	}
	return strings.ReplaceAll(num, ",", "")
}

func maxTempPtr(cur, candidate *float64) *float64 {
	if candidate == nil {
		return cur
	}
	if cur == nil || *candidate > *cur {
		v := *candidate
		return &v
	}
	return cur
}
