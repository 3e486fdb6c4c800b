package common

import (
	"context"
	"time"

	"github.com/greenpi/watering-deploy/internal/config"
	"github.com/greenpi/watering-deploy/internal/logger"
	"github.com/greenpi/watering-deploy/internal/system/health"
	"github.com/greenpi/watering-deploy/internal/system/supervisor"
)

// pollInterval is the spacing of status queries when the readiness poll is
// enabled instead of the fixed settle delay.
const pollInterval = time.Second

// Settle waits for the service to come up after an asynchronous start.
// By default this is the fixed delay; when the readiness poll is enabled it
// queries the supervisor until the service is running or the timeout elapses.
func Settle(ctx context.Context, sup supervisor.Supervisor, cfg *config.Config, sleep func(time.Duration)) {
	if !cfg.ReadinessPoll {
		sleep(cfg.SettleDelay)
		return
	}

	deadline := time.Now().Add(cfg.ReadinessTimeout)

	for {
		report, err := sup.Status(ctx, cfg.ServiceName)
		if err == nil && report.Running {
			return
		}

		if time.Now().After(deadline) {
			logger.WarnKV(ctx, "Service did not become active before the readiness timeout",
				"service", cfg.ServiceName, "timeout", cfg.ReadinessTimeout)

			return
		}

		sleep(pollInterval)
	}
}

// Report surfaces the service status, recent logs and the optional health
// probe to the operator. Every failure here degrades to a partial report:
// the run's outcome was already decided before reporting starts.
func Report(ctx context.Context, sup supervisor.Supervisor, prober *health.Prober, cfg *config.Config) {
	report, err := sup.Status(ctx, cfg.ServiceName)

	switch {
	case err != nil:
		logger.WarnKV(ctx, "Could not query service status", "service", cfg.ServiceName, "error", err)
	case report.Running:
		logger.InfoKV(ctx, "Service is running", "service", cfg.ServiceName)
	default:
		logger.WarnKV(ctx, "Service is not running, inspect it manually", "service", cfg.ServiceName)
	}

	if err == nil && report.StatusText != "" {
		logger.Info(ctx, report.StatusText)
	}

	lines, err := sup.RecentLogs(ctx, cfg.ServiceName, cfg.LogLines)
	if err != nil {
		logger.WarnKV(ctx, "Could not fetch service logs", "service", cfg.ServiceName, "error", err)
	}

	for _, line := range lines {
		logger.Info(ctx, line)
	}

	if cfg.HealthURL == "" || prober == nil {
		return
	}

	if err := prober.Probe(ctx, cfg.HealthURL, cfg.HealthAPIKey); err != nil {
		logger.WarnKV(ctx, "Health probe failed", "url", cfg.HealthURL, "error", err)
		return
	}

	logger.InfoKV(ctx, "Health probe succeeded", "url", cfg.HealthURL)
}
