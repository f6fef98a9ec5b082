package probe

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/hamed0406/hostsentry/internal/domain"
	"github.com/hamed0406/hostsentry/internal/platform"
)

// NetworkExposure audits how the host presents itself to the network:
// directly-held public addresses, IP forwarding, and whether a NAT isolation
// layer sits in front of everything.
type NetworkExposure struct {
	Platform platform.Platform

	// test seams; nil means the real host
	Interfaces func() ([]net.Interface, error)
	ReadFile   func(string) ([]byte, error)
}

func (p *NetworkExposure) Run(ctx context.Context) (domain.Report, error) {
	ifaces := p.Interfaces
	if ifaces == nil {
		ifaces = net.Interfaces
	}
	readFile := p.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}

	list, err := ifaces()
	if err != nil {
		return domain.Report{}, fmt.Errorf("enumerate interfaces: %w", err)
	}

	var public []string
	upCount := 0
	for _, iface := range list {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		upCount++
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok || ipnet.IP.To16() == nil {
				continue
			}
			ip := ipnet.IP
			if !ip.IsPrivate() && !ip.IsLoopback() && !ip.IsLinkLocalUnicast() {
				public = append(public, fmt.Sprintf("%s (%s)", ip, iface.Name))
			}
		}
	}

	forwarding := false
	if p.Platform.OS == "linux" {
		if b, err := readFile("/proc/sys/net/ipv4/ip_forward"); err == nil {
			forwarding = strings.TrimSpace(string(b)) == "1"
		}
	}

	r := domain.Report{
		Status: domain.StatusPass,
		Details: map[string]any{
			"available":        true,
			"activeInterfaces": upCount,
			"publicAddresses":  public,
			"ipForwarding":     forwarding,
			"natIsolated":      p.Platform.IsolatedNAT(),
		},
	}
	switch {
	case forwarding:
		r.Status = domain.StatusWarning
		r.Message = "IP forwarding is enabled; this host routes traffic between networks"
		r.Recommendations = append(r.Recommendations, domain.Recommendation{
			Severity: domain.SeverityMedium,
			Message:  "disable net.ipv4.ip_forward unless this host is intentionally a router",
		})
	case len(public) > 0:
		r.Status = domain.StatusInfo
		r.Message = fmt.Sprintf("host holds %d public address(es); exposed services are directly reachable", len(public))
	case p.Platform.IsolatedNAT():
		r.Status = domain.StatusInfo
		r.Message = "host sits behind a NAT virtual network; no direct external exposure"
	default:
		r.Message = fmt.Sprintf("%d active interface(s), private addressing only", upCount)
	}
	return r, nil
}
