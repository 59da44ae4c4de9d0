package config

import (
	"context"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/hashstructure/v2"
	log "github.com/sirupsen/logrus"
)

// Watch reloads the configuration whenever the file changes and hands the
// result to onChange. Editors that rewrite files trigger several events per
// save, so reloads producing an identical configuration are suppressed by
// hash comparison. Invalid intermediate states are logged and skipped.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	lastHash, err := currentHash(path)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return errors.New("could not retrieve event")
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				log.WithError(err).Warn("ignoring config reload")
				continue
			}
			hash, err := hashstructure.Hash(cfg, hashstructure.FormatV2, nil)
			if err == nil && hash == lastHash {
				continue
			}
			lastHash = hash

			log.Info("reloading configuration")
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("could not retrieve error")
			}
			return err
		}
	}
}

func currentHash(path string) (uint64, error) {
	cfg, err := Load(path)
	if err != nil {
		return 0, err
	}
	return hashstructure.Hash(cfg, hashstructure.FormatV2, nil)
}
