// Package logging configures the logrus logger shared by the CLI, the HTTP
// server and the conversion controller.
package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrInvalidLogLevel is returned when the level is not one of debug, info,
// warn or error.
var ErrInvalidLogLevel = errors.New("invalid log level")

// New returns a logger writing to out at the given level.
func New(out io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(lvl)
	return l, nil
}

// ParseLevel accepts the four levels the tool documents; an empty string
// means info.
func ParseLevel(level string) (logrus.Level, error) {
	switch s := strings.ToLower(strings.TrimSpace(level)); s {
	case "":
		return logrus.InfoLevel, nil
	case "debug", "info", "warn", "warning", "error":
		return logrus.ParseLevel(s)
	default:
		return 0, fmt.Errorf("%w: %s (must be debug, info, warn, or error)", ErrInvalidLogLevel, level)
	}
}
