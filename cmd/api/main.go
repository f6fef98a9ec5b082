package main

import (
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/hamed0406/hostsentry/internal/aggregate"
	"github.com/hamed0406/hostsentry/internal/cmdexec"
	"github.com/hamed0406/hostsentry/internal/config"
	"github.com/hamed0406/hostsentry/internal/fix"
	"github.com/hamed0406/hostsentry/internal/httpapi"
	"github.com/hamed0406/hostsentry/internal/logging"
	"github.com/hamed0406/hostsentry/internal/platform"
	"github.com/hamed0406/hostsentry/internal/probe"
	"github.com/hamed0406/hostsentry/internal/sensors"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	runner := cmdexec.NewRunner(cfg.ProbeTimeout)
	plat := platform.Detect(runner)
	logger.Info("platform_detected",
		zap.String("os", plat.OS),
		zap.Bool("wsl", plat.WSL),
		zap.String("natGateway", plat.NATGateway),
		zap.String("pkgManager", plat.PkgManager),
	)

	lhm := sensors.NewLHMClient(
		sensors.Hosts(cfg.LHMHost, plat),
		cfg.LHMPort, cfg.LHMUsername, cfg.LHMPassword,
		cfg.SensorTimeout,
	)
	src := sensors.Source(lhm)
	if plat.OS == "linux" {
		src = &sensors.Multi{Sources: []sensors.Source{lhm, sensors.NewSysfs()}}
	}

	reg, err := probe.DefaultRegistry(runner, plat, src)
	if err != nil {
		log.Fatal(err)
	}
	agg := aggregate.New(logger, reg, cfg.ProbeTimeout, 0)

	fixes := fix.NewDispatcher(logger)
	if err := fix.RegisterDefaults(fixes, runner, plat); err != nil {
		log.Fatal(err)
	}

	api := httpapi.NewServer(logger, agg, fixes, src)

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, api.Router()); err != nil {
		log.Fatal(err)
	}
}
