// Package logger builds the process-wide logrus logger.
package logger

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"fleetaudit/internal/config"
)

// New builds a logger from cfg. An unknown level falls back to info; any
// format other than "text" logs JSON.
func New(cfg config.LogConfig) (*logrus.Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	switch cfg.Output {
	case "", "stdout":
		log.SetOutput(os.Stdout)
	case "stderr":
		log.SetOutput(os.Stderr)
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return nil, eris.Wrapf(err, "logger: open %s", cfg.Output)
		}
		log.SetOutput(file)
	}

	return log, nil
}

// Discard returns a logger that drops everything, for tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
