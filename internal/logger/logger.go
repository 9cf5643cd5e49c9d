// Package logger provides leveled logging for the API server and the notifier.
package logger

import (
	"fmt"
	"os"

	"github.com/op/go-logging"
)

const (
	moduleName = "jobportal"
	timeFormat = "2006/01/02 15:04:05"
)

var logger = logging.MustGetLogger(moduleName)

// InitLogger replaces the default backend with a formatted stderr backend
// filtered at the given level. Unknown levels fall back to INFO.
func InitLogger(level string) {
	logLevel, err := logging.LogLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unknown log level %q, using INFO\n", level)
		logLevel = logging.INFO
	}

	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(
		`%{time:`+timeFormat+`} %{level:.4s} %{shortfile} - %{message}`,
	))
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(logLevel, moduleName)
	logger.SetBackend(leveled)
	logger.ExtraCalldepth = 1
}

func Debug(args ...any) {
	logger.Debug(args...)
}

func Debugf(format string, args ...any) {
	logger.Debugf(format, args...)
}

func Info(args ...any) {
	logger.Info(args...)
}

func Infof(format string, args ...any) {
	logger.Infof(format, args...)
}

func Warning(args ...any) {
	logger.Warning(args...)
}

func Warningf(format string, args ...any) {
	logger.Warningf(format, args...)
}

func Error(args ...any) {
	logger.Error(args...)
}

func Errorf(format string, args ...any) {
	logger.Errorf(format, args...)
}
