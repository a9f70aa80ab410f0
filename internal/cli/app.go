// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/syna-omnibox/internal/backend"
	"github.com/jeranaias/syna-omnibox/internal/commands"
	"github.com/jeranaias/syna-omnibox/internal/config"
	"github.com/jeranaias/syna-omnibox/internal/mention"
	"github.com/jeranaias/syna-omnibox/internal/router"
	"github.com/jeranaias/syna-omnibox/internal/storage"
	"github.com/jeranaias/syna-omnibox/internal/telemetry"
)

// telemetryKeep is how many persisted telemetry rows survive a prune.
const telemetryKeep = 5000

// =============================================================================
// APP
// =============================================================================

// App is one wired instance of every component. Commands build it once
// and close it on exit.
type App struct {
	Config    *config.Config
	Logger    *log.Logger
	Client    *backend.Client // nil when offline
	Registry  *commands.Registry
	Completer *commands.Completer
	Recorder  *telemetry.Recorder
	Router    *router.Router
	Store     *storage.Store // nil when storage could not be opened

	watcher *commands.ManifestWatcher
	logFile io.Closer
	cancel  context.CancelFunc
}

// AppOptions tweak how the App is built.
type AppOptions struct {
	// LogWriter receives component logs. Nil keeps log.Default's output.
	LogWriter io.Writer

	// NoStore skips opening the SQLite store.
	NoStore bool
}

// NewApp wires the components described by cfg.
func NewApp(ctx context.Context, cfg *config.Config, opts AppOptions) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	app := &App{Config: cfg, cancel: cancel}

	if opts.LogWriter != nil {
		app.Logger = log.New(opts.LogWriter, "", log.LstdFlags)
	} else {
		app.Logger = log.Default()
	}

	if !cfg.API.Offline {
		app.Client = backend.New(cfg.API.BaseURL,
			backend.WithToken(cfg.API.Token),
			backend.WithTimeout(cfg.API.Timeout()),
			backend.WithRateLimit(cfg.API.RatePerSec, cfg.API.Burst),
			backend.WithLogger(app.Logger),
		)
	}

	if !opts.NoStore {
		path, err := cfg.StoragePath()
		if err == nil {
			app.Store, err = storage.Open(path, storage.WithLogger(app.Logger))
		}
		if err != nil {
			// State is optional; the omnibox works without it
			app.Logger.Printf("STORAGE_UNAVAILABLE | error=%v", err)
			app.Store = nil
		}
	}

	app.Registry = commands.NewRegistry(app.manifestSource(),
		commands.WithCacheTTL(cfg.Registry.CacheTTL()),
		commands.WithMinVersion(cfg.Registry.MinManifestVersion),
		commands.WithLogger(app.Logger),
	)
	app.Completer = commands.NewCompleter(app.Registry)

	if file := cfg.Registry.ManifestFile; file != "" {
		w, err := commands.WatchManifestFile(ctx, file, app.Registry, app.Logger)
		if err != nil {
			app.Logger.Printf("MANIFEST_WATCH_FAILED | path=%s error=%v", file, err)
		} else {
			app.watcher = w
		}
	}

	var sinks []telemetry.Sink
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.Remote && app.Client != nil {
			sinks = append(sinks, app.Client)
		}
		if cfg.Telemetry.Persist && app.Store != nil {
			sinks = append(sinks, app.Store)
		}
	}
	app.Recorder = telemetry.NewRecorder(cfg.Telemetry.BufferSize,
		telemetry.WithSinks(sinks...),
		telemetry.WithLogger(app.Logger),
	)

	var services router.Services
	if app.Client != nil {
		services = router.ServicesFrom(app.Client)
	}
	routerOpts := []router.Option{router.WithLogger(app.Logger)}
	if cfg.Telemetry.Enabled {
		routerOpts = append(routerOpts, router.WithRecorder(app.Recorder))
	}
	app.Router = router.New(app.Registry, services, routerOpts...)

	return app, nil
}

// manifestSource picks where the catalog comes from: a local file wins,
// then the backend, then the built-in catalog.
func (a *App) manifestSource() commands.ManifestSource {
	if file := a.Config.Registry.ManifestFile; file != "" {
		return commands.FileSource{Path: file}
	}
	if a.Client != nil {
		return a.Client
	}
	return commands.StaticSource{Manifest: commands.DefaultManifest()}
}

// ExecutionContext builds the routing context from config and the
// persisted UI state.
func (a *App) ExecutionContext(ctx context.Context) router.ExecutionContext {
	ec := router.ExecutionContext{
		UserID:      a.Config.User.ID,
		WorkspaceID: a.Config.User.WorkspaceID,
	}
	if a.Store == nil {
		return ec
	}

	state, err := a.Store.LoadState(ctx)
	if err != nil && !errors.Is(err, storage.ErrCorruptState) {
		a.Logger.Printf("STATE_LOAD_FAILED | error=%v", err)
		return ec
	}
	if ec.WorkspaceID == "" {
		ec.WorkspaceID = state.LastWorkspaceID
	}
	ec.DocumentID = state.LastDocumentID
	return ec
}

// Searcher returns the mention searcher, or nil offline.
func (a *App) Searcher() mention.Searcher {
	if a.Client == nil {
		return nil
	}
	return a.Client
}

// Backlinks returns the backlink registrar, or nil offline.
func (a *App) Backlinks() mention.Backlinker {
	if a.Client == nil {
		return nil
	}
	return a.Client
}

// Remember persists a successful invocation and follows navigation into
// the UI state.
func (a *App) Remember(ctx context.Context, input string, result router.Result) {
	if a.Store == nil || !result.Success {
		return
	}
	_, err := a.Store.UpdateState(ctx, func(s *storage.UIState) {
		s.RecentCommands = storage.PushRecent(s.RecentCommands, input)
		if id, ok := strings.CutPrefix(result.Target, workspacePath); ok && id != "" {
			s.LastWorkspaceID = id
			s.LastPanel = "workspace"
		}
		if id, ok := strings.CutPrefix(result.Target, documentPath); ok && id != "" {
			s.LastDocumentID = id
			s.LastPanel = "document"
		}
	})
	if err != nil {
		a.Logger.Printf("STATE_SAVE_FAILED | error=%v", err)
	}
}

const (
	workspacePath = "/workspace/"
	documentPath  = "/document/"
)

// followResult moves ec to the workspace or document a result navigated to.
func followResult(ec router.ExecutionContext, result router.Result) router.ExecutionContext {
	if !result.Success {
		return ec
	}
	if id, ok := strings.CutPrefix(result.Target, workspacePath); ok && id != "" {
		ec.WorkspaceID = id
	}
	if id, ok := strings.CutPrefix(result.Target, documentPath); ok && id != "" {
		ec.DocumentID = id
	}
	return ec
}

// Close flushes telemetry and releases every resource.
func (a *App) Close() error {
	var errs []error

	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close watcher: %w", err))
		}
	}
	if a.Recorder != nil {
		a.Recorder.Flush()
	}
	if a.Store != nil {
		if _, err := a.Store.PruneTelemetry(context.Background(), telemetryKeep); err != nil {
			errs = append(errs, fmt.Errorf("prune telemetry: %w", err))
		}
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log: %w", err))
		}
	}
	a.cancel()
	return errors.Join(errs...)
}

// openLogFile opens ~/.syna/omnibox.log for appending.
func openLogFile() (*os.File, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	return os.OpenFile(filepath.Join(dir, "omnibox.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}
