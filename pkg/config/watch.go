package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/doodlesbykumbi/devicehub/pkg/logging"
)

// Watch reloads the config file at path whenever it is written or replaced
// and passes the new configuration to fn. A file that fails to parse or
// validate is logged and ignored. Watch blocks until ctx is done.
//
// The parent directory is watched so that editors and config-map mounts
// that replace the file by rename are still seen.
func Watch(ctx context.Context, path string, fn func(*DevicehubConfig)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	log := logging.FromContext(ctx)
	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := LoadFile(path)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("config reload failed, keeping previous configuration")
				continue
			}
			log.Info().Str("path", path).Msg("config reloaded")
			fn(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("config watcher error")
		}
	}
}
