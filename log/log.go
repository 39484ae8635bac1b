// Package log provides file-based logging for replmux. The host environment
// owns the terminal, so nothing is ever written to stdout or stderr; all
// diagnostics go to a log file under the user's config directory.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

var (
	InfoLog    *log.Logger
	WarningLog *log.Logger
	ErrorLog   *log.Logger

	logFile *os.File
)

var logFileName = filepath.Join(os.TempDir(), "replmux.log")

// Loggers discard until Initialize points them at the log file, so library
// consumers that never initialize logging still work.
func init() {
	initDiscard()
}

// Initialize sets up the package loggers. Every process should call this once
// before using any logger. If the log file cannot be opened, loggers fall
// back to discarding output rather than failing.
func Initialize() {
	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		initDiscard()
		return
	}
	logFile = f

	flags := log.Ldate | log.Ltime | log.Lshortfile
	InfoLog = log.New(f, "INFO: ", flags)
	WarningLog = log.New(f, "WARNING: ", flags)
	ErrorLog = log.New(f, "ERROR: ", flags)

	initDebug()
}

func initDiscard() {
	InfoLog = log.New(io.Discard, "", 0)
	WarningLog = log.New(io.Discard, "", 0)
	ErrorLog = log.New(io.Discard, "", 0)
	DebugLog = log.New(io.Discard, "", 0)
}

// Close flushes and closes the log file.
func Close() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	closeDebug()
}

// Path returns the location of the log file, for surfacing in diagnostics.
func Path() string {
	return logFileName
}

// Every is a convenience for callers that want a message in the log and
// returned as an error at the same time.
func Every(format string, v ...interface{}) error {
	err := fmt.Errorf(format, v...)
	if ErrorLog != nil {
		ErrorLog.Output(2, err.Error())
	}
	return err
}
