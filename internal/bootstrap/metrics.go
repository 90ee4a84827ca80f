package bootstrap

import (
	"log/slog"

	"github.com/oakmont/portal-api/config"
	"github.com/oakmont/portal-api/internal/observability/statsd"
)

// BuildMetrics creates the StatsD sink from observability configuration.
// Always returns a usable sink; when disabled the sink swallows emissions.
//
//nolint:ireturn // the sink interface hides whether metrics are enabled.
func BuildMetrics(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) statsd.Sink {
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.IsEnabled(),
		Address: cfg.StatsdAddress,
		Prefix:  cfg.StatsdPrefix,
		Logger:  logger,
	})
	if err != nil {
		if logger != nil {
			logger.Warn("failed to create statsd client, metrics disabled", "error", err)
		}
		disabled, _ := statsd.NewClient(statsd.Config{Enabled: false})
		return disabled
	}

	if cfg.IsEnabled() && logger != nil {
		logger.Info("metrics enabled", "address", cfg.StatsdAddress, "prefix", cfg.StatsdPrefix)
	}
	return client
}
