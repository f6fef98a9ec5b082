package sensors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Sysfs reads Linux hwmon directly. It covers hosts without an LHM bridge;
// values are millidegrees in temp*_input and RPM in fan*_input.
type Sysfs struct {
	Root string // defaults to /sys/class/hwmon
}

func NewSysfs() *Sysfs { return &Sysfs{Root: "/sys/class/hwmon"} }

func (s *Sysfs) Name() string { return "sysfs" }

func (s *Sysfs) Read(_ context.Context) (Reading, error) {
	root := s.Root
	if root == "" {
		root = "/sys/class/hwmon"
	}
	dirs, err := filepath.Glob(filepath.Join(root, "hwmon*"))
	if err != nil || len(dirs) == 0 {
		return Reading{}, fmt.Errorf("sysfs hwmon not available under %s", root)
	}

	r := Reading{Source: "sysfs"}
	for _, dir := range dirs {
		name := strings.TrimSpace(readString(filepath.Join(dir, "name")))
		maxTemp := chipMaxTemp(dir)

		switch chipKind(name) {
		case "cpu":
			r.CPUTempC = maxTempPtr(r.CPUTempC, maxTemp)
		case "gpu":
			r.GPUTempC = maxTempPtr(r.GPUTempC, maxTemp)
		}

		fans, _ := filepath.Glob(filepath.Join(dir, "fan*_input"))
		for _, f := range fans {
			if rpm, ok := readFloat(f); ok {
				r.Fans = append(r.Fans, Fan{
					Name:  name + "/" + strings.TrimSuffix(filepath.Base(f), "_input"),
					RPM:   rpm,
					TempC: maxTemp,
				})
			}
		}
	}
	if r.CPUTempC == nil && r.GPUTempC == nil && len(r.Fans) == 0 {
		return Reading{}, fmt.Errorf("no usable hwmon sensors under %s", root)
	}
	return r, nil
}

func chipKind(name string) string {
	switch name {
	case "coretemp", "k10temp", "zenpower", "cpu_thermal":
		return "cpu"
	case "amdgpu", "nouveau", "radeon":
		return "gpu"
	default:
		return ""
	}
}

func chipMaxTemp(dir string) *float64 {
	var maxTemp *float64
	temps, _ := filepath.Glob(filepath.Join(dir, "temp*_input"))
	for _, t := range temps {
		if milli, ok := readFloat(t); ok {
			c := milli / 1000.0
			maxTemp = maxTempPtr(maxTemp, &c)
		}
	}
	return maxTemp
}

func readString(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(b)
}

func readFloat(path string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(readString(path)), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
