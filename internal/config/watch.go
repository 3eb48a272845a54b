package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls fn with the reloaded configuration every time the file at name is written or
// replaced, until ctx is done. Files that fail to load are logged and skipped.
//
// The parent directory is watched, so editors that save by renaming a temporary file are seen.
func Watch(ctx context.Context, name string, logger *slog.Logger, fn func(*Config)) error {
	if logger == nil {
		logger = slog.Default()
	}

	name = filepath.Clean(name)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer w.Close()

	if err = w.Add(filepath.Dir(name)); err != nil {
		return fmt.Errorf("config: watch %s: %w", name, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			config, err := Load(name)
			if err != nil {
				logger.Warn("config reload failed", "file", name, "error", err)
				continue
			}
			logger.Info("config reloaded", "file", name)
			fn(config)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watch error", "file", name, "error", err)
		}
	}
}
