package preference

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// File is a Source backed by a small YAML document:
//
//	reduce_motion: true
//
// A missing file or key means the fallback value.
type File struct {
	path     string
	fallback bool
}

type fileSettings struct {
	ReduceMotion *bool `yaml:"reduce_motion"`
}

func NewFile(path string, fallback bool) *File {
	return &File{path: filepath.Clean(path), fallback: fallback}
}

func (f *File) Current() (bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return f.fallback, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	var settings fileSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", f.path, err)
	}
	if settings.ReduceMotion == nil {
		return f.fallback, nil
	}
	return *settings.ReduceMotion, nil
}

// Watch follows the file's directory so editors that replace the file on
// save are still seen.
func (f *File) Watch(fn func(bool)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(f.path), err)
	}

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	go f.run(watcher, fn, stopCh, doneCh)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stopCh)
			<-doneCh
			if err := watcher.Close(); err != nil {
				slog.Warn("Failed to close preference watcher", "path", f.path, "err", err)
			}
		})
	}, nil
}

func (f *File) run(watcher *fsnotify.Watcher, fn func(bool), stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			value, err := f.Current()
			if err != nil {
				slog.Warn("Ignoring unreadable preference file", "path", f.path, "err", err)
				continue
			}
			fn(value)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Preference watcher error", "path", f.path, "err", err)
		}
	}
}
