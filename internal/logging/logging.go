// Package logging holds the process-wide diagnostic logger.
//
// All faults in the streaming pipeline are recovered locally; they only
// surface here, at debug severity, when the embedding application installs
// a logger with SetLogger.
package logging

import (
	"io"
	"log"
	"sync/atomic"
)

var current atomic.Pointer[log.Logger]

func init() {
	current.Store(log.New(io.Discard, "[mdstream] ", log.LstdFlags))
}

// Logger returns the active logger.
func Logger() *log.Logger {
	return current.Load()
}

// SetLogger 设置自定义日志记录器，传入 nil 时丢弃所有输出
func SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	current.Store(logger)
}

// Debugf writes a debug-severity diagnostic line.
func Debugf(format string, args ...any) {
	current.Load().Printf("DEBUG "+format, args...)
}
