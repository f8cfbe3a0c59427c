package logger

import (
	"fmt"
	"os"
)

// Logger defines the interface for logging throughout the application.
// Different implementations can be used for different contexts (console, silent, structured, etc.)
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// ConsoleLogger writes human-readable logs to stderr so they never mix
// with parsed output on stdout.
type ConsoleLogger struct {
	// Verbose enables Debug output.
	Verbose bool
}

func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return &ConsoleLogger{Verbose: verbose}
}

func (c *ConsoleLogger) Info(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[INFO] "+msg+"\n", args...)
}

func (c *ConsoleLogger) Error(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[ERROR] "+msg+"\n", args...)
}

func (c *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if !c.Verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "[DEBUG] "+msg+"\n", args...)
}

// SilentLogger discards all log messages.
// Used when running in TUI or MCP mode to keep stdout/stderr clean for the host.
type SilentLogger struct{}

func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

func (s *SilentLogger) Info(msg string, args ...interface{})  {}
func (s *SilentLogger) Error(msg string, args ...interface{}) {}
func (s *SilentLogger) Debug(msg string, args ...interface{}) {}
