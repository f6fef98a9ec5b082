// cmd/preflight/main.go
package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

func main() {
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	addr := strings.TrimSpace(os.Getenv("ADDR"))
	lhmHost := strings.TrimSpace(os.Getenv("LHM_HOST"))
	lhmPort := strings.TrimSpace(os.Getenv("LHM_PORT"))
	lhmUser := strings.TrimSpace(os.Getenv("LHM_USERNAME"))
	lhmPass := strings.TrimSpace(os.Getenv("LHM_PASSWORD"))
	logDir := strings.TrimSpace(os.Getenv("LOG_DIR"))

	if addr == "" {
		warn("ADDR is empty; the API will bind 127.0.0.1:8080.")
	} else {
		ok("ADDR=" + addr)
		if !strings.HasPrefix(addr, "127.0.0.1") && !strings.HasPrefix(addr, "localhost") {
			warn("ADDR binds beyond loopback; the API has no authentication — keep it local.")
		}
	}

	if lhmHost == "" {
		warn("LHM_HOST empty — hardware check will fall back to localhost, then sysfs on Linux.")
		lhmHost = "localhost"
	} else {
		ok("LHM_HOST=" + lhmHost)
	}

	port := 8085
	if lhmPort != "" {
		n, err := strconv.Atoi(lhmPort)
		if err != nil || n < 1 || n > 65535 {
			warn("LHM_PORT is not a valid port; default 8085 will be used.")
		} else {
			port = n
			ok("LHM_PORT=" + lhmPort)
		}
	}

	if lhmUser != "" && lhmPass == "" {
		warn("LHM_USERNAME set without LHM_PASSWORD; the bridge will reject basic auth.")
	}

	// Best-effort reachability probe so a dead bridge is caught before startup.
	target := net.JoinHostPort(lhmHost, strconv.Itoa(port))
	if conn, err := net.DialTimeout("tcp", target, 2*time.Second); err != nil {
		warn("sensor bridge unreachable at " + target + " — hardware check will report an error until it is up.")
	} else {
		conn.Close()
		ok("sensor bridge reachable at " + target)
	}

	if logDir == "" {
		warn("LOG_DIR empty — logs will land in ./logs.")
	} else {
		ok("LOG_DIR=" + logDir)
	}

	ok("preflight passed")
}
