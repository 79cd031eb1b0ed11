// ABOUTME: Logger construction for the player and its tools
// ABOUTME: Wraps logrus with debug level toggled by ECHOPLAYER_DEBUG
package log

import (
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DebugEnv turns on debug logging when set to a true value
const DebugEnv = "ECHOPLAYER_DEBUG"

var debug bool

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv(DebugEnv))
	if err != nil {
		debug = false
	}
}

// Debug reports whether debug logging was requested through the environment
func Debug() bool { return debug }

// GetLogger returns a new logger instance
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Setup returns a logger writing text records to w. Debug level is enabled
// when either the flag or the environment asks for it.
func Setup(w io.Writer, debugFlag bool) *logrus.Logger {
	l := GetLogger()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	if debugFlag {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Discard returns a logger that drops everything, for tests and library
// defaults.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
