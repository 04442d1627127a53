package utils

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Output goes to stderr so that command
// output on stdout stays pipeable.
var Log = &logrus.Logger{
	Out:       os.Stderr,
	Formatter: &logrus.TextFormatter{FullTimestamp: true},
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.InfoLevel,
}

// logLevels are the accepted --loglevel values. Trace and panic are not used.
var logLevels = map[string]logrus.Level{
	"debug":   logrus.DebugLevel,
	"info":    logrus.InfoLevel,
	"warn":    logrus.WarnLevel,
	"warning": logrus.WarnLevel,
	"error":   logrus.ErrorLevel,
	"fatal":   logrus.FatalLevel,
}

// SetLogLevel sets the level of Log. Unknown names leave it unchanged.
func SetLogLevel(level string) error {
	l, ok := logLevels[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		return fmt.Errorf("bad log level %q (want debug, info, warn, error or fatal)", level)
	}
	Log.SetLevel(l)
	return nil
}

// IsIP reports whether host is an IPv4 or IPv6 literal. Square brackets
// around IPv6 hosts are ignored.
func IsIP(host string) bool {
	return net.ParseIP(strings.Trim(host, "[]")) != nil
}
