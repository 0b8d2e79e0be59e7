package jscbridge

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/yejune/go-jsc-bridge/internal/shim"
)

// Console levels as they appear in the bracketed tag
const (
	LevelLog   = "LOG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogEntry is one line written through the script console.
type LogEntry struct {
	Generation uint64    `json:"generation"`
	Level      string    `json:"level"`
	Message    string    `json:"message"`
	Line       string    `json:"line"`
	Time       time.Time `json:"time" ts_type:"string"`
}

// LogSink receives console output. WriteEntry is called on the script's
// goroutine and must not block or call back into the engine.
type LogSink interface {
	WriteEntry(entry LogEntry)
}

// LogSinkFunc adapts a function to LogSink
type LogSinkFunc func(entry LogEntry)

func (f LogSinkFunc) WriteEntry(entry LogEntry) {
	f(entry)
}

// parseLogLine splits "[LEVEL] message". Lines without a tag are LOG.
func parseLogLine(line string) (level, message string) {
	if strings.HasPrefix(line, "[") {
		if end := strings.Index(line, "] "); end > 1 {
			return line[1:end], line[end+2:]
		}
		if strings.HasSuffix(line, "]") && len(line) > 2 {
			return line[1 : len(line)-1], ""
		}
	}
	return LevelLog, line
}

func slogLevel(level string) slog.Level {
	switch level {
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// installConsole binds __native_log and then evaluates the console shim.
func installConsole(c *Context, sink LogSink) error {
	if err := c.SetObjectForKey(shim.NativeLogName, func(args []string) (string, error) {
		var line string
		if len(args) > 0 {
			line = args[0]
		}
		level, msg := parseLogLine(line)
		c.logger.Log(context.Background(), slogLevel(level), "JS console", "level", level, "message", msg, "generation", c.generation)
		if sink != nil {
			sink.WriteEntry(LogEntry{
				Generation: c.generation,
				Level:      level,
				Message:    msg,
				Line:       line,
				Time:       time.Now(),
			})
		}
		return "", nil
	}); err != nil {
		return err
	}
	_, err := c.rt.Execute(shim.Console, shim.ConsoleOrigin)
	return err
}

type multiSink []LogSink

func (s multiSink) WriteEntry(entry LogEntry) {
	for _, sink := range s {
		sink.WriteEntry(entry)
	}
}

// MultiSink fans every entry out to sinks in order. Nil sinks are skipped.
func MultiSink(sinks ...LogSink) LogSink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
