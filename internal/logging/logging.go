// Package logging owns the process logger.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

// Init replaces the process logger. An unknown level falls back to info.
// With neither console nor file output, logs are discarded.
func Init(level, logFile string, console bool) error {
	logger := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	var writers []io.Writer
	if console {
		writers = append(writers, os.Stderr)
	}

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return err
		}

		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		writers = append(writers, file)
	}

	if len(writers) > 0 {
		logger.SetOutput(io.MultiWriter(writers...))
	} else {
		logger.SetOutput(io.Discard)
	}

	log = logger
	return nil
}

// Get returns the process logger, creating a default one on first use.
func Get() *logrus.Logger {
	if log == nil {
		log = logrus.New()
	}
	return log
}

// Component returns the process logger tagged with a component field.
func Component(name string) *logrus.Entry {
	return Get().WithField("component", name)
}

// Or returns logger, or the component logger when logger is nil.
func Or(logger logrus.FieldLogger, component string) logrus.FieldLogger {
	if logger == nil {
		return Component(component)
	}
	return logger.WithField("component", component)
}
