// Package platform isolates the platform-conditional logic that would
// otherwise be inlined per probe: OS identity, WSL2 detection, the virtual
// NAT gateway, and which native tools are available.
package platform

import (
	"net"
	"os"
	"runtime"
	"strings"

	"github.com/hamed0406/hostsentry/internal/cmdexec"
)

// Platform is a capability snapshot taken once at startup and injected into
// probes. All fields are facts, not guesses: WSL requires the kernel version
// keyword, and the NAT gateway requires a private-range nameserver.
type Platform struct {
	OS         string // runtime.GOOS value
	WSL        bool
	NATGateway string // WSL2 virtual-network gateway address, "" outside WSL
	PkgManager string // apt, dnf, pacman, brew; "" when none detected
}

// Detect inspects the host. The file reads are best-effort: a missing
// /proc/version simply means not-WSL.
func Detect(runner cmdexec.Runner) Platform {
	return detect(runner, runtime.GOOS, os.ReadFile)
}

func detect(runner cmdexec.Runner, goos string, readFile func(string) ([]byte, error)) Platform {
	p := Platform{OS: goos}

	if goos == "linux" {
		if v, err := readFile("/proc/version"); err == nil &&
			strings.Contains(strings.ToLower(string(v)), "microsoft") {
			p.WSL = true
			p.NATGateway = natNameserver(readFile)
		}
	}

	for _, mgr := range []string{"apt", "dnf", "yum", "pacman", "brew"} {
		if _, err := runner.LookPath(mgr); err == nil {
			p.PkgManager = mgr
			break
		}
	}
	return p
}

// IsolatedNAT reports whether wildcard-bound services are unreachable from
// outside the host because a virtual NAT layer sits in front of them. Only
// true when both WSL markers were found (kernel keyword + NAT nameserver).
func (p Platform) IsolatedNAT() bool {
	return p.WSL && p.NATGateway != ""
}

// natNameserver returns the resolv.conf nameserver if it looks like a
// virtual-network gateway (a private address, as WSL2 writes it).
func natNameserver(readFile func(string) ([]byte, error)) string {
	b, err := readFile("/etc/resolv.conf")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(b), "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 2 && fields[0] == "nameserver" {
			ip := net.ParseIP(fields[1])
			if ip != nil && ip.IsPrivate() {
				return fields[1]
			}
		}
	}
	return ""
}
