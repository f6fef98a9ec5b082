// Package aggregate fans out over the probe registry and folds the reports
// into one scored result set.
package aggregate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/hostsentry/internal/domain"
	"github.com/hamed0406/hostsentry/internal/probe"
)

type Aggregator struct {
	Logger      *zap.Logger
	Registry    *probe.Registry
	Timeout     time.Duration // per-probe budget
	Concurrency int
}

func New(logger *zap.Logger, reg *probe.Registry, timeout time.Duration, concurrency int) *Aggregator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if concurrency < 1 {
		concurrency = reg.Len()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{Logger: logger, Registry: reg, Timeout: timeout, Concurrency: concurrency}
}

// RunAll invokes every registered probe concurrently. One probe's failure
// (error or panic) becomes a synthetic error report and never affects the
// others; the result set keeps registry order regardless of completion
// order.
func (a *Aggregator) RunAll(ctx context.Context) domain.ResultSet {
	entries := a.Registry.Entries()
	reports := make([]domain.Report, len(entries))

	sem := make(chan struct{}, a.Concurrency)
	var wg sync.WaitGroup
	for i, e := range entries {
		i, e := i, e
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()
			reports[i] = a.runEntry(ctx, e)
		}()
	}
	wg.Wait()

	rs := domain.NewResultSet(reports)
	a.Logger.Info("checks_run",
		zap.Int("total", rs.TotalChecks),
		zap.Int("passed", rs.Passed),
		zap.Int("warnings", rs.Warnings),
		zap.Int("critical", rs.Critical),
		zap.Int("score", rs.OverallScore),
	)
	return rs
}

// RunOne runs a single probe by id.
func (a *Aggregator) RunOne(ctx context.Context, id string) (domain.Report, error) {
	e, err := a.Registry.Get(id)
	if err != nil {
		return domain.Report{}, err
	}
	return a.runEntry(ctx, e), nil
}

func (a *Aggregator) runEntry(ctx context.Context, e probe.Entry) (report domain.Report) {
	cctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			a.Logger.Error("probe_panic", zap.String("check", e.ID), zap.Any("panic", rec))
			report = errorReport(e, fmt.Errorf("probe panicked: %v", rec))
		}
	}()

	r, err := e.Probe.Run(cctx)
	if err != nil {
		a.Logger.Warn("probe_error", zap.String("check", e.ID), zap.Error(err))
		return errorReport(e, err)
	}
	e.Stamp(&r)
	return r
}

func errorReport(e probe.Entry, err error) domain.Report {
	r := domain.Report{
		Status:  domain.StatusError,
		Message: err.Error(),
		Details: map[string]any{"available": false},
	}
	e.Stamp(&r)
	return r
}
