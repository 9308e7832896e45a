package credentials

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Watch reloads the key whenever the key file is written, created, or
// renamed into place, until ctx is done. The parent directory is watched
// so that atomic replacements are seen. onReload, when non-nil, runs after
// each successful reload.
func (p *Provider) Watch(ctx context.Context, onReload func(Source)) error {
	if p.cfg.KeyPath == "" {
		return eris.New("credentials: watch requires a key path")
	}

	path, err := filepath.Abs(p.cfg.KeyPath)
	if err != nil {
		return eris.Wrap(err, "credentials: resolve key path")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "credentials: create watcher")
	}
	defer watcher.Close() //nolint:errcheck

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return eris.Wrapf(err, "credentials: watch %s", filepath.Dir(path))
	}

	log := zap.L().With(zap.String("key_path", path))
	log.Info("credentials: watching key file")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := p.Reload(); err != nil {
				log.Warn("credentials: reload failed, keeping previous key", zap.Error(err))
				continue
			}
			log.Info("credentials: key reloaded", zap.String("source", string(p.Source())))
			if onReload != nil {
				onReload(p.Source())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("credentials: watcher error", zap.Error(err))
		}
	}
}
