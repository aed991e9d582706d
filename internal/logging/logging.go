// Package logging defines the leveled logger every component receives and a
// go-logger backed provider used by the binaries.
package logging

// Logger is the structured, leveled logging contract.  Arguments after the
// message are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Provider hands out named loggers, one per component.
type Provider interface {
	GetLogger(name string) Logger
}

type noop struct{}

func (noop) Debug(string, ...any) {}
func (noop) Info(string, ...any)  {}
func (noop) Warn(string, ...any)  {}
func (noop) Error(string, ...any) {}

// NoOp returns a logger that discards everything.
func NoOp() Logger { return noop{} }

// OrNoOp returns l, or a discarding logger when l is nil.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return noop{}
	}
	return l
}
