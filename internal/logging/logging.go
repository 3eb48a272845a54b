// Package logging sets up the process wide slog logger for the command line tools.
//
// Output can be held back in memory while a terminal preview owns the screen and
// released once the screen is torn down.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Options for Init.
type Options struct {
	// Level is one of debug, info, warn or error (case insensitive).
	Level string

	// Format is text or json.
	Format string

	// File, if set, receives a copy of every record.
	File string

	// Hold keeps records in memory until SetOutput is called.
	Hold bool
}

type heldWriter struct {
	mu      sync.Mutex
	held    bytes.Buffer
	holding bool
	target  io.Writer
	file    *os.File
}

func (w *heldWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	if w.holding {
		w.held.Write(p)
	} else if w.target != nil {
		_, err = w.target.Write(p)
	}
	if w.file != nil {
		if _, ferr := w.file.Write(p); ferr != nil && err == nil {
			err = ferr
		}
	}
	return len(p), err
}

var output *heldWriter

// ParseLevel converts a level name to a slog.Level. Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init builds the handler described by opts and installs it as the slog default. A log file
// opened by an earlier Init is closed; records it still held are carried over.
func Init(opts Options) (*slog.Logger, error) {
	w := &heldWriter{
		holding: opts.Hold,
		target:  os.Stderr,
	}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		w.file = f
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	case "", "text":
		handler = slog.NewTextHandler(w, handlerOpts)
	default:
		if w.file != nil {
			_ = w.file.Close()
		}
		return nil, fmt.Errorf("logging: unknown format %q", opts.Format)
	}

	if output != nil {
		output.mu.Lock()
		w.held.Write(output.held.Bytes())
		if output.file != nil {
			_ = output.file.Close()
			output.file = nil
		}
		output.mu.Unlock()
	}
	output = w
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

// SetOutput flushes held records to target and writes through from then on.
func SetOutput(target io.Writer) error {
	if output == nil {
		return nil
	}
	output.mu.Lock()
	defer output.mu.Unlock()

	output.target = target
	output.holding = false
	if output.held.Len() == 0 {
		return nil
	}
	_, err := output.held.WriteTo(target)
	return err
}

// Hold stops writing to the target and keeps records in memory.
func Hold() {
	if output == nil {
		return
	}
	output.mu.Lock()
	output.holding = true
	output.mu.Unlock()
}

// Close releases held records to stderr and closes the log file.
func Close() error {
	if output == nil {
		return nil
	}
	output.mu.Lock()
	defer output.mu.Unlock()

	var err error
	if output.held.Len() > 0 {
		_, err = output.held.WriteTo(os.Stderr)
	}
	if output.file != nil {
		if cerr := output.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		output.file = nil
	}
	return err
}
