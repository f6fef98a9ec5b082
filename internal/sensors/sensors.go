// Package sensors reads hardware temperature and fan data. The primary
// source is a Libre Hardware Monitor web-server bridge; on Linux hosts
// without one, sysfs hwmon is the fallback.
package sensors

import (
	"context"
	"errors"

	"go.uber.org/multierr"
)

// Fan pairs a tachometer with the hottest sensor on the same hardware node,
// so a stopped fan can be judged against the heat it is supposed to move.
type Fan struct {
	Name  string   `json:"name"`
	RPM   float64  `json:"rpm"`
	TempC *float64 `json:"tempC,omitempty"`
}

// Reading is one snapshot. Nil temperature pointers mean the sensor is
// absent (no GPU is a normal reading, not an error).
type Reading struct {
	Source   string  `json:"source"`
	CPUTempC *float64 `json:"cpuTempC,omitempty"`
	GPUTempC *float64 `json:"gpuTempC,omitempty"`
	Fans     []Fan   `json:"fans,omitempty"`
}

// Source produces readings. Read must bound its own wait; a slow bridge
// becomes an error, never a hang.
type Source interface {
	Read(ctx context.Context) (Reading, error)
	Name() string
}

// ErrNoSource means every configured source failed.
var ErrNoSource = errors.New("no sensor source available")

// Multi tries sources in order and returns the first successful reading.
type Multi struct {
	Sources []Source
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Read(ctx context.Context) (Reading, error) {
	var errs error
	for _, s := range m.Sources {
		r, err := s.Read(ctx)
		if err == nil {
			return r, nil
		}
		errs = multierr.Append(errs, err)
	}
	return Reading{}, multierr.Append(ErrNoSource, errs)
}
