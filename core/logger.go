package core

import (
	"log"
	"os"
)

// Logger is any service that can log leveled messages with optional context args.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type stdLogger struct {
	std *log.Logger
}

var _ Logger = (*stdLogger)(nil)

func NewStdLogger(std ...*log.Logger) *stdLogger {
	if len(std) > 0 {
		return &stdLogger{std: std[0]}
	}
	return &stdLogger{std: log.New(os.Stdout, "", log.LstdFlags|log.Lshortfile)}
}

func (l stdLogger) print(level, msg string, args []interface{}) {
	l.std.Printf("%s: %s", level, msg)
	for _, arg := range args {
		l.std.Printf("%+v", arg)
	}
}

func (l stdLogger) Debug(msg string, args ...interface{}) { l.print("DEBUG", msg, args) }
func (l stdLogger) Info(msg string, args ...interface{})  { l.print("INFO", msg, args) }
func (l stdLogger) Warn(msg string, args ...interface{})  { l.print("WARN", msg, args) }
func (l stdLogger) Error(msg string, args ...interface{}) { l.print("ERROR", msg, args) }
