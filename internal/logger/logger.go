package logger

import (
	"io"
	"log"
	"os"
)

// Logger is an alias so callers need not import log directly.
type Logger = log.Logger

const flags = log.LstdFlags | log.Lmicroseconds | log.LUTC

// New returns a stdout logger with a consistent service prefix.
func New(service string) *Logger {
	return NewTo(os.Stdout, service)
}

// NewTo is New with an explicit writer.
func NewTo(w io.Writer, service string) *Logger {
	return log.New(w, "["+service+"] ", flags)
}
