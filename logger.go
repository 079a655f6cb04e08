package drivershim

import (
	"log"
	"os"
	"sync"
)

// Logger is the structured logging contract every component takes. The host
// process is expected to provide its own implementation in production.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// NewStdLogger returns a simple Logger backed by the standard library log package.
func NewStdLogger() Logger {
	l := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)
	return &stdLogger{l: l}
}

type stdLogger struct {
	l  *log.Logger
	mu sync.Mutex
}

func (s *stdLogger) Debug(msg string, kv ...any) { s.printf("DEBUG", msg, kv...) }
func (s *stdLogger) Info(msg string, kv ...any)  { s.printf("INFO", msg, kv...) }
func (s *stdLogger) Warn(msg string, kv ...any)  { s.printf("WARN", msg, kv...) }
func (s *stdLogger) Error(msg string, kv ...any) { s.printf("ERROR", msg, kv...) }

func (s *stdLogger) printf(level, msg string, kv ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(kv) == 0 {
		s.l.Printf("%s %s", level, msg)
		return
	}
	s.l.Printf("%s %s %v", level, msg, kv)
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
