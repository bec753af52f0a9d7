package fs

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LogLevel describes CoDriver's logs. These are a subset of the
// syslog log levels.
type LogLevel byte

// Log levels
const (
	LogLevelEmergency LogLevel = iota
	LogLevelAlert
	LogLevelCritical
	LogLevelError // Error - can't be suppressed
	LogLevelWarning
	LogLevelNotice // Normal logging, -q suppresses
	LogLevelInfo   // Transfers, needs -v
	LogLevelDebug  // Debug level, needs -vv
)

var logLevelToString = []string{
	LogLevelEmergency: "EMERGENCY",
	LogLevelAlert:     "ALERT",
	LogLevelCritical:  "CRITICAL",
	LogLevelError:     "ERROR",
	LogLevelWarning:   "WARNING",
	LogLevelNotice:    "NOTICE",
	LogLevelInfo:      "INFO",
	LogLevelDebug:     "DEBUG",
}

// String turns a LogLevel into a string
func (l LogLevel) String() string {
	if l >= LogLevel(len(logLevelToString)) {
		return fmt.Sprintf("LogLevel(%d)", l)
	}
	return logLevelToString[l]
}

// Set a LogLevel
func (l *LogLevel) Set(s string) error {
	for n, name := range logLevelToString {
		if s != "" && name == s {
			*l = LogLevel(n)
			return nil
		}
	}
	return errors.Errorf("unknown log level %q", s)
}

// Type of the value
func (l *LogLevel) Type() string {
	return "string"
}

// Scan implements the fmt.Scanner interface
func (l *LogLevel) Scan(s fmt.ScanState, ch rune) error {
	token, err := s.Token(true, nil)
	if err != nil {
		return err
	}
	return l.Set(string(token))
}

var logLevelToLogrus = []logrus.Level{
	LogLevelEmergency: logrus.PanicLevel,
	LogLevelAlert:     logrus.PanicLevel,
	LogLevelCritical:  logrus.FatalLevel,
	LogLevelError:     logrus.ErrorLevel,
	LogLevelWarning:   logrus.WarnLevel,
	LogLevelNotice:    logrus.WarnLevel,
	LogLevelInfo:      logrus.InfoLevel,
	LogLevelDebug:     logrus.DebugLevel,
}

// InitLogging points logrus at out and picks the formatter from
// Config.UseJSONLog. Filtering by level is done by LogPrintf so
// logrus itself passes everything.
func InitLogging(out io.Writer) {
	if out == nil {
		out = os.Stderr
	}
	logrus.SetOutput(out)
	logrus.SetLevel(logrus.DebugLevel)
	if Config.UseJSONLog {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableColors:    true,
			DisableTimestamp: false,
			FullTimestamp:    true,
		})
	}
}

// LogValueItem is a keyed item added to the JSON log entry
type LogValueItem struct {
	key   string
	value interface{}
}

// LogValue can be passed as an argument to any of the logging calls
// to add a field to the JSON output. It prints as its value.
func LogValue(key string, value interface{}) LogValueItem {
	return LogValueItem{key: key, value: value}
}

// String returns the representation of value
func (j LogValueItem) String() string {
	if s, ok := j.value.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(j.value)
}

// LogPrintf produces a log entry from the arguments passed in
func LogPrintf(level LogLevel, o interface{}, text string, args ...interface{}) {
	out := fmt.Sprintf(text, args...)
	fields := logrus.Fields{}
	if Config.UseJSONLog {
		if o != nil {
			fields["object"] = fmt.Sprintf("%+v", o)
			fields["objectType"] = fmt.Sprintf("%T", o)
		}
		for _, arg := range args {
			if item, ok := arg.(LogValueItem); ok {
				fields[item.key] = item.value
			}
		}
	} else if o != nil {
		out = fmt.Sprintf("%v: %s", o, out)
	}
	entry := logrus.WithFields(fields)
	lvl := logrus.ErrorLevel
	if int(level) < len(logLevelToLogrus) {
		lvl = logLevelToLogrus[level]
	}
	// Panic and Fatal are downgraded so a log line never ends the process
	if lvl < logrus.ErrorLevel {
		lvl = logrus.ErrorLevel
	}
	entry.Log(lvl, out)
}

// LogLevelPrintf writes logs at the given level
func LogLevelPrintf(level LogLevel, o interface{}, text string, args ...interface{}) {
	if Config.LogLevel >= level {
		LogPrintf(level, o, text, args...)
	}
}

// Errorf writes error log output for this Object or Fs. It should
// always be seen by the user.
func Errorf(o interface{}, text string, args ...interface{}) {
	LogLevelPrintf(LogLevelError, o, text, args...)
}

// Logf writes log output for this Object or Fs at Notice level, the
// default. Only use this for things the user should see.
func Logf(o interface{}, text string, args ...interface{}) {
	LogLevelPrintf(LogLevelNotice, o, text, args...)
}

// Infof writes info on transfers for this Object or Fs. These appear
// with -v.
func Infof(o interface{}, text string, args ...interface{}) {
	LogLevelPrintf(LogLevelInfo, o, text, args...)
}

// Debugf writes debugging output for this Object or Fs. Use this for
// debug only. The user must have to specify -vv to see this.
func Debugf(o interface{}, text string, args ...interface{}) {
	LogLevelPrintf(LogLevelDebug, o, text, args...)
}
