package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// watch exports script once, then again after every change, until ctx is
// done. The directory is watched rather than the file, since editors often
// save by replacing it. onExport, if set, is called after every attempt.
func watch(ctx context.Context, opts *options, script string, onExport func([]string, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(script)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	logger := log.WithField("script", script)
	rebuild := func() {
		paths, err := runExport(opts, script)
		if err != nil {
			// A broken script is normal while editing.
			logger.WithError(err).Warn("export failed")
		}
		if onExport != nil {
			onExport(paths, err)
		}
	}

	rebuild()
	logger.Info("watching for changes")
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			logger.WithField("op", event.Op.String()).Debug("script changed")
			rebuild()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Error("watcher")
		}
	}
}
