package probe

import (
	"context"
	"fmt"

	"github.com/hamed0406/hostsentry/internal/domain"
	"github.com/hamed0406/hostsentry/internal/sensors"
)

// Temperature thresholds in °C. The fan rule is independent of these: a
// stopped fan next to non-trivial heat is always critical.
const (
	cpuWarnC     = 75.0
	cpuCriticalC = 90.0
	gpuWarnC     = 80.0
	gpuCriticalC = 95.0

	// nonTrivialHeatC is the temperature above which a 0 RPM fan reading
	// means a real stopped fan rather than an idle semi-passive mode.
	nonTrivialHeatC = 40.0
)

// Hardware reads temperatures and fan speeds from the sensor chain. An
// unavailable source is an error report with a remediation hint, never a
// probe failure.
type Hardware struct {
	Sensors sensors.Source
}

func (p *Hardware) Run(ctx context.Context) (domain.Report, error) {
	reading, err := p.Sensors.Read(ctx)
	if err != nil {
		return domain.Report{
			Status:  domain.StatusError,
			Message: fmt.Sprintf("no sensor source available: %v", err),
			Details: map[string]any{"available": false},
			Recommendations: []domain.Recommendation{{
				Severity: domain.SeverityInfo,
				Message:  "start the Libre Hardware Monitor web server (default port 8085) or verify LHM_HOST/LHM_PORT",
			}},
		}, nil
	}

	r := domain.Report{
		Status: domain.StatusPass,
		Details: map[string]any{
			"available": true,
			"source":    reading.Source,
			"reading":   reading,
		},
	}

	judgeTemp(&r, "CPU", reading.CPUTempC, cpuWarnC, cpuCriticalC)
	judgeTemp(&r, "GPU", reading.GPUTempC, gpuWarnC, gpuCriticalC)

	stopped := 0
	for _, fan := range reading.Fans {
		if fan.RPM == 0 && fan.TempC != nil && *fan.TempC >= nonTrivialHeatC {
			stopped++
			r.Escalate(domain.StatusCritical)
			r.Recommendations = append(r.Recommendations, domain.Recommendation{
				Severity: domain.SeverityCritical,
				Message:  fmt.Sprintf("fan %q reports 0 RPM at %.0f°C; check for a seized or disconnected fan", fan.Name, *fan.TempC),
			})
		}
	}

	switch {
	case stopped > 0:
		r.Message = fmt.Sprintf("%d fan(s) stopped under load", stopped)
	case r.Status == domain.StatusCritical:
		r.Message = "temperature above critical threshold"
	case r.Status == domain.StatusWarning:
		r.Message = "temperature above warning threshold"
	default:
		r.Message = tempSummary(reading)
	}
	return r, nil
}

func judgeTemp(r *domain.Report, label string, temp *float64, warn, critical float64) {
	if temp == nil {
		return // no such sensor is a normal reading
	}
	switch {
	case *temp >= critical:
		r.Escalate(domain.StatusCritical)
		r.Recommendations = append(r.Recommendations, domain.Recommendation{
			Severity: domain.SeverityCritical,
			Message:  fmt.Sprintf("%s at %.0f°C (critical threshold %.0f°C); shut down workloads and check cooling", label, *temp, critical),
		})
	case *temp >= warn:
		r.Escalate(domain.StatusWarning)
		r.Recommendations = append(r.Recommendations, domain.Recommendation{
			Severity: domain.SeverityMedium,
			Message:  fmt.Sprintf("%s at %.0f°C (warning threshold %.0f°C); check airflow and dust", label, *temp, warn),
		})
	}
}

func tempSummary(reading sensors.Reading) string {
	switch {
	case reading.CPUTempC != nil && reading.GPUTempC != nil:
		return fmt.Sprintf("CPU %.0f°C, GPU %.0f°C, all within limits", *reading.CPUTempC, *reading.GPUTempC)
	case reading.CPUTempC != nil:
		return fmt.Sprintf("CPU %.0f°C, within limits (no GPU sensor)", *reading.CPUTempC)
	default:
		return "sensors nominal"
	}
}
