package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	Critical = 50
	Fatal    = Critical
	Error    = 40
	Warning  = 30
	Info     = 20
	Debug    = 10
	NotSet   = 0
)

var (
	LogLevel      int = Warning
	logLevelMutex sync.Mutex

	std = logrus.New()
)

func init() {
	std.SetOutput(os.Stderr)
	std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	SetLogLevel(Warning)

	localEnv := os.Getenv("LOCAL")
	if strings.ToLower(localEnv) == "true" || localEnv == "1" {
		SetLogLevel(Debug)
	}
}

// Configure applies logging.level and logging.format from configuration.
// level is one of debug, info, warning, error or critical; format is text
// or json.
func Configure(level, format string) error {
	lvl, ok := map[string]int{
		"debug":    Debug,
		"info":     Info,
		"warn":     Warning,
		"warning":  Warning,
		"error":    Error,
		"critical": Critical,
	}[strings.ToLower(level)]
	if !ok {
		return fmt.Errorf("unknown log level %q", level)
	}

	switch strings.ToLower(format) {
	case "", "text":
		std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		std.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	// LOCAL=true keeps debug output regardless of configuration
	if localEnv := os.Getenv("LOCAL"); strings.ToLower(localEnv) == "true" || localEnv == "1" {
		lvl = Debug
	}
	SetLogLevel(lvl)
	return nil
}

// SetOutput redirects log output
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

func SetLogLevel(level int) {
	logLevelMutex.Lock()
	defer logLevelMutex.Unlock()
	LogLevel = level
	std.SetLevel(toLogrus(level))
}

func toLogrus(level int) logrus.Level {
	switch {
	case level <= Debug:
		return logrus.DebugLevel
	case level <= Info:
		return logrus.InfoLevel
	case level <= Warning:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}

// WithFields returns an entry carrying structured fields
func WithFields(fields logrus.Fields) *logrus.Entry {
	return std.WithFields(fields)
}

func Debugf(format string, v ...interface{}) {
	std.Debugf(format, v...)
}

func Infof(format string, v ...interface{}) {
	std.Infof(format, v...)
}

func Warningf(format string, v ...interface{}) {
	std.Warnf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	std.Errorf(format, v...)
}

func Criticalf(format string, v ...interface{}) {
	std.WithField("critical", true).Errorf(format, v...)
}

func Fatalf(format string, v ...interface{}) {
	std.Fatalf(format, v...)
}
