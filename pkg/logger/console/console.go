// Package console is the terminal and log-collector backend of pkg/logger.
package console

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// ConsoleLogger writes through charmbracelet/log.
type ConsoleLogger struct {
	logger *log.Logger
	// splitTags moves a leading "[Component]" tag out of the message into a
	// component field.
	splitTags bool
}

// ConsoleLoggerParams configures a ConsoleLogger.
//
// Prefix is printed before every message (the binary name). JSON writes one
// object per line for log collectors and also turns message tags into a
// component field. Output defaults to stderr.
type ConsoleLoggerParams struct {
	Debug  bool
	JSON   bool
	Prefix string
	Output io.Writer
}

func NewConsoleLogger(params ConsoleLoggerParams) *ConsoleLogger {
	opts := log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
		Prefix:          params.Prefix,
		Formatter:       log.TextFormatter,
	}
	if params.Debug {
		opts.Level = log.DebugLevel
	}
	if params.JSON {
		opts.Formatter = log.JSONFormatter
	}

	out := params.Output
	if out == nil {
		out = os.Stderr
	}
	return &ConsoleLogger{
		logger:    log.NewWithOptions(out, opts),
		splitTags: params.JSON,
	}
}

// splitTag turns "[Graph] Imported CSV" into "Imported CSV" with a
// component=Graph pair in front of keyvals.
func (c *ConsoleLogger) splitTag(message string, keyvals []any) (string, []any) {
	if !c.splitTags || !strings.HasPrefix(message, "[") {
		return message, keyvals
	}
	end := strings.IndexByte(message, ']')
	if end < 2 {
		return message, keyvals
	}
	tagged := make([]any, 0, len(keyvals)+2)
	tagged = append(tagged, "component", message[1:end])
	return strings.TrimSpace(message[end+1:]), append(tagged, keyvals...)
}

func (c *ConsoleLogger) Log(message string, keyvals ...any) {
	message, keyvals = c.splitTag(message, keyvals)
	c.logger.Print(message, keyvals...)
}

func (c *ConsoleLogger) Info(message string, keyvals ...any) {
	message, keyvals = c.splitTag(message, keyvals)
	c.logger.Info(message, keyvals...)
}

func (c *ConsoleLogger) Warn(message string, keyvals ...any) {
	message, keyvals = c.splitTag(message, keyvals)
	c.logger.Warn(message, keyvals...)
}

func (c *ConsoleLogger) Error(message string, keyvals ...any) {
	message, keyvals = c.splitTag(message, keyvals)
	c.logger.Error(message, keyvals...)
}

func (c *ConsoleLogger) Debug(message string, keyvals ...any) {
	message, keyvals = c.splitTag(message, keyvals)
	c.logger.Debug(message, keyvals...)
}

// Fatal logs and exits with status 1.
func (c *ConsoleLogger) Fatal(message string, keyvals ...any) {
	message, keyvals = c.splitTag(message, keyvals)
	c.logger.Fatal(message, keyvals...)
}
