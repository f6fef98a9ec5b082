package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr          string        // API bind address, e.g., "127.0.0.1:8080"
	LogDir        string        // logs directory
	LHMHost       string        // Libre Hardware Monitor bridge host
	LHMPort       int           // bridge port
	LHMUsername   string        // bridge basic-auth user (empty = no auth)
	LHMPassword   string        // bridge basic-auth password
	SensorTimeout time.Duration // per-request budget against the bridge
	ProbeTimeout  time.Duration // per-probe budget in the aggregator
}

func FromEnv() Config {
	// Bind address (local dashboard default)
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	// Logs
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	// Sensor bridge; all optional with documented defaults
	lhmHost := os.Getenv("LHM_HOST")
	if lhmHost == "" {
		lhmHost = "localhost"
	}
	lhmPort := 8085
	if v := os.Getenv("LHM_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < 65536 {
			lhmPort = n
		}
	}

	sensorTimeout := 3 * time.Second
	if v := os.Getenv("SENSOR_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			sensorTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	probeTimeout := 15 * time.Second
	if v := os.Getenv("PROBE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			probeTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	return Config{
		Addr:          addr,
		LogDir:        logDir,
		LHMHost:       lhmHost,
		LHMPort:       lhmPort,
		LHMUsername:   os.Getenv("LHM_USERNAME"),
		LHMPassword:   os.Getenv("LHM_PASSWORD"),
		SensorTimeout: sensorTimeout,
		ProbeTimeout:  probeTimeout,
	}
}
