package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// New builds a logger writing to out with the given level ("debug",
// "info", ...) and format ("text" or "json").
func New(out io.Writer, level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(lvl)

	switch format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unsupported log format: %q", format)
	}
	return logger, nil
}

func LogError(logger logrus.FieldLogger, msg string, err error) {
	logger.Errorf("%s: %v", msg, err)
}

func LogWarn(logger logrus.FieldLogger, msg string) {
	logger.Warn(msg)
}

func LogInfo(logger logrus.FieldLogger, msg string) {
	logger.Info(msg)
}
