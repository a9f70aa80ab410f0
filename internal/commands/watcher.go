// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// MANIFEST FILE WATCHER
// =============================================================================

// ManifestWatcher clears a registry's cache whenever its manifest file changes.
type ManifestWatcher struct {
	path     string
	registry *Registry
	watcher  *fsnotify.Watcher
	logger   *log.Logger
	onChange func()
	done     chan struct{}
}

// WatchManifestFile starts watching path and returns the running watcher.
// The watcher stops when ctx is cancelled or Close is called.
func WatchManifestFile(ctx context.Context, path string, registry *Registry, logger *log.Logger) (*ManifestWatcher, error) {
	if logger == nil {
		logger = log.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create manifest watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}

	// Editors often replace the file instead of writing it, so watch the
	// directory and filter by name.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	mw := &ManifestWatcher{
		path:     abs,
		registry: registry,
		watcher:  watcher,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go mw.processEvents(ctx)
	return mw, nil
}

// OnChange registers a hook run after each cache invalidation. It must be
// called before the first change is expected.
func (mw *ManifestWatcher) OnChange(fn func()) {
	mw.onChange = fn
}

// Close stops the watcher and waits for the event loop to exit.
func (mw *ManifestWatcher) Close() error {
	err := mw.watcher.Close()
	<-mw.done
	return err
}

func (mw *ManifestWatcher) processEvents(ctx context.Context) {
	defer close(mw.done)

	for {
		select {
		case <-ctx.Done():
			mw.watcher.Close()
			return

		case event, ok := <-mw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != mw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}

			mw.registry.ClearCache()
			mw.logger.Printf("MANIFEST_CHANGED | path=%s op=%s", mw.path, event.Op)
			if mw.onChange != nil {
				mw.onChange()
			}

		case err, ok := <-mw.watcher.Errors:
			if !ok {
				return
			}
			mw.logger.Printf("MANIFEST_WATCH_ERROR | path=%s error=%v", mw.path, err)
		}
	}
}
