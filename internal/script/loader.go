// Package script provides YAML loading and hot reload for script definitions.
package script

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader loads a script from a YAML file and optionally hot-reloads it on change.
// The zero-config loader serves the built-in default script.
type Loader struct {
	path string

	mu     sync.RWMutex
	script *Script
}

// NewLoader creates a loader for the given script file path. An empty path means
// "use the built-in default script".
func NewLoader(path string) *Loader {
	return &Loader{path: path, script: DefaultScript()}
}

// Load reads and validates the configured script file and publishes it. A missing
// path keeps the built-in default. A malformed file is recovered by publishing the
// fallback script; the error is logged, never surfaced to users.
func (l *Loader) Load() error {
	if l.path == "" {
		slog.Debug("script.Loader.Load: no script file configured, using built-in default")
		l.publish(DefaultScript())
		return nil
	}

	s, err := LoadFile(l.path)
	if err != nil {
		slog.Error("script.Loader.Load: falling back to built-in opening script", "path", l.path, "error", err)
		l.publish(FallbackScript())
		return fmt.Errorf("load script %q: %w", l.path, err)
	}

	l.publish(s)
	slog.Info("script.Loader.Load: script loaded", "path", l.path, "name", s.Name, "steps", s.Len())
	return nil
}

// Current returns the currently published script. Safe for concurrent use; the
// returned script is read-only by convention.
func (l *Loader) Current() *Script {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.script
}

func (l *Loader) publish(s *Script) {
	l.mu.Lock()
	l.script = s
	l.mu.Unlock()
}

// WatchAndReload watches the script file's directory and reloads on change.
// Blocks until done is closed. A reload that fails keeps the previously published
// script rather than degrading a running service.
func (l *Loader) WatchAndReload(done <-chan struct{}) error {
	if l.path == "" {
		<-done
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save.
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		return fmt.Errorf("watch script dir: %w", err)
	}

	target := filepath.Base(l.path)
	for {
		select {
		case <-done:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			s, err := LoadFile(l.path)
			if err != nil {
				slog.Warn("script.Loader.WatchAndReload: reload failed, keeping current script", "path", l.path, "error", err)
				continue
			}
			l.publish(s)
			slog.Info("script.Loader.WatchAndReload: script reloaded", "path", l.path, "name", s.Name, "steps", s.Len())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("script.Loader.WatchAndReload: watcher error", "error", err)
		}
	}
}

// LoadFile parses and validates a single YAML script file.
func LoadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script file: %w", err)
	}

	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script YAML: %w", err)
	}
	if s.Name == "" {
		s.Name = filepath.Base(path)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
