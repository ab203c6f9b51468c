package app

import (
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"fleetaudit/internal/config"
)

// NewNewRelicApp starts the New Relic agent when it is enabled and licensed.
// A startup failure is logged and tracing is disabled.
func NewNewRelicApp(cfg config.NewRelicConfig, log logrus.FieldLogger) *newrelic.Application {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return nil
	}

	nrApp, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		log.WithError(err).Warn("failed to initialize New Relic")
		return nil
	}

	log.WithField("app", cfg.AppName).Info("New Relic enabled (with DB instrumentation)")
	return nrApp
}
