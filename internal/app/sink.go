package app

import (
	"fmt"
	"log/slog"
	"os"
)

// ConsoleSink renders the progress stream on stdout for the CLI user and
// mirrors error lines into the structured log.
type ConsoleSink struct {
	log *slog.Logger
}

func NewConsoleSink(log *slog.Logger) *ConsoleSink {
	return &ConsoleSink{log: log}
}

func (s *ConsoleSink) Log(msg string) {
	fmt.Fprintln(os.Stdout, msg)
}

func (s *ConsoleSink) Error(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	s.log.Error(msg)
}
