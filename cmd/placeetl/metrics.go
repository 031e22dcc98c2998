package main

import (
	"go.uber.org/zap"

	"placeetl/internal/config"
	"placeetl/internal/metrics"
	"placeetl/internal/metrics/datadog"
	"placeetl/internal/metrics/prompush"
)

// setupMetrics installs the configured backend and returns the function that
// flushes it at exit. A backend that fails to initialize leaves metrics
// disabled; it never fails the run.
func setupMetrics(p config.Pipeline, logger *zap.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch p.Metrics.Backend {
	case "", "none":
		logger.Debug("metrics: disabled")
		return func() {}

	case "pushgateway", "prom", "prometheus":
		b, err = prompush.NewBackend(p.Job, p.Metrics.PushgatewayURL)

	case "datadog", "dogstatsd":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       p.Metrics.DatadogAddr,
			GlobalTags: []string{"job:" + p.Job},
		})

	default:
		logger.Warn("metrics: unknown backend; metrics disabled", zap.String("backend", p.Metrics.Backend))
		return func() {}
	}
	if err != nil {
		logger.Warn("metrics: init failed; using nop", zap.String("backend", p.Metrics.Backend), zap.Error(err))
		return func() {}
	}

	logger.Info("metrics: enabled", zap.String("backend", p.Metrics.Backend), zap.String("job", p.Job))
	prev := metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			logger.Warn("metrics: flush error", zap.Error(err))
		}
		metrics.SetBackend(prev)
	}
}
