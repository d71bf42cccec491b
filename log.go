package acme

import (
	"fmt"
	"os"
)

// Logger is the minimal logging interface the client needs. It is satisfied
// by go.n16f.net/program programs among others.
type Logger interface {
	Debug(int, string, ...any)
	Info(string, ...any)
	Error(string, ...any)
}

type DefaultLogger struct{}

func NewDefaultLogger() DefaultLogger {
	return DefaultLogger{}
}

func (log DefaultLogger) Debug(level int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "debug: "+format+"\n", args...)
}

func (log DefaultLogger) Info(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func (log DefaultLogger) Error(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
