package config

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/signalsfoundry/ransim/internal/logging"
)

// Watch reloads configuration files as they change on disk, until ctx is
// cancelled. Changed files go through the same parse-and-validate path as
// the initial load; invalid updates are reported and the previous version
// stays active.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if strings.ToLower(filepath.Ext(event.Name)) != ".yaml" {
					continue
				}
				if err := s.loadFile(event.Name); err != nil {
					s.log.Error(ctx, "config reload failed",
						logging.String("path", event.Name),
						logging.Err(err))
					continue
				}
				s.log.Info(ctx, "config reloaded",
					logging.String("path", event.Name))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Error(ctx, "config watcher error", logging.Err(err))
			}
		}
	}()
	return nil
}
