package config

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/ddlayout/pkg/watch"
)

// Loader holds the current configuration and reloads it on demand. Reloaded
// settings are published through a watchable; like every watchable it must
// only be used from one goroutine, so file events from [WatchFiles] are
// handed to the caller, which then calls Reload.
type Loader struct {
	path    string
	current *watch.Watchable[*Config]
	logger  *log.Logger
}

// NewLoader performs the initial load of path (which may be empty for
// defaults plus environment).
func NewLoader(path string, logger *log.Logger) (*Loader, error) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Loader{path: path, current: watch.New(cfg), logger: logger}, nil
}

// Path returns the watched file.
func (l *Loader) Path() string { return l.path }

// Config returns the current configuration.
func (l *Loader) Config() *Config { return l.current.Get() }

// Watchable returns the watchable that receives every successful reload.
func (l *Loader) Watchable() *watch.Watchable[*Config] { return l.current }

// Reload re-reads the file. On error the current configuration is kept.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := Load(l.path)
	if err != nil {
		l.logger.Warn("config reload failed, keeping previous config", "path", l.path, "err", err)
		return l.current.Get(), err
	}
	l.logger.Info("config reloaded", "path", l.path)
	l.current.Set(cfg)
	return cfg, nil
}

// WatchFiles reports paths that were written, created or renamed until ctx
// is done. The parent directories are watched so editors that replace files
// are handled. Both channels are closed when watching stops.
func WatchFiles(ctx context.Context, paths ...string) (<-chan string, <-chan error, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("file watcher: %w", err)
	}

	wanted := make(map[string]string, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, nil, fmt.Errorf("file watcher %s: %w", p, err)
		}
		wanted[abs] = p
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, nil, fmt.Errorf("file watcher add %s: %w", dir, err)
		}
	}

	events := make(chan string)
	errs := make(chan error)
	go func() {
		defer close(events)
		defer close(errs)
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				abs, err := filepath.Abs(ev.Name)
				if err != nil {
					continue
				}
				p, ok := wanted[abs]
				if !ok {
					continue
				}
				select {
				case events <- p:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				select {
				case errs <- err:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, errs, nil
}
