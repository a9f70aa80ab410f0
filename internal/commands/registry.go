// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/unicode/norm"
)

// DefaultCacheTTL is how long a fetched manifest is served without refetching.
const DefaultCacheTTL = 5 * time.Minute

// DefaultFetchTimeout bounds a single manifest fetch.
const DefaultFetchTimeout = 10 * time.Second

const manifestKey = "manifest"

// =============================================================================
// SOURCES & POLICY
// =============================================================================

// ManifestSource fetches a command manifest.
type ManifestSource interface {
	FetchManifest(ctx context.Context) (*Manifest, error)
}

// SourceFunc adapts a function to ManifestSource.
type SourceFunc func(ctx context.Context) (*Manifest, error)

// FetchManifest implements ManifestSource.
func (f SourceFunc) FetchManifest(ctx context.Context) (*Manifest, error) {
	return f(ctx)
}

// PermissionPolicy decides whether a user holds a named permission.
type PermissionPolicy interface {
	Allows(userID, permission string) bool
}

// AllowAllPermissions grants every permission. Permission strings are not
// enforced anywhere yet; this policy makes that state explicit.
type AllowAllPermissions struct{}

// Allows always returns true.
func (AllowAllPermissions) Allows(string, string) bool { return true }

// =============================================================================
// REGISTRY
// =============================================================================

// Registry serves the command manifest with a freshness window and
// single in-flight fetch.
type Registry struct {
	source       ManifestSource
	now          func() time.Time
	ttl          time.Duration
	fetchTimeout time.Duration
	logger       *log.Logger
	policy       PermissionPolicy
	minVersion   *semver.Version

	group singleflight.Group

	mu        sync.RWMutex
	manifest  *Manifest
	fetchedAt time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source used for cache freshness.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithCacheTTL sets the manifest freshness window.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithFetchTimeout bounds each manifest fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.fetchTimeout = d
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPermissionPolicy sets the policy consulted for RequiresPermission.
func WithPermissionPolicy(p PermissionPolicy) Option {
	return func(r *Registry) {
		if p != nil {
			r.policy = p
		}
	}
}

// WithMinVersion rejects fetched manifests older than the given semver.
// An unparsable version is logged and ignored.
func WithMinVersion(version string) Option {
	return func(r *Registry) {
		if version == "" {
			return
		}
		v, err := semver.NewVersion(version)
		if err != nil {
			r.logger.Printf("REGISTRY | invalid min_version=%q err=%v", version, err)
			return
		}
		r.minVersion = v
	}
}

// NewRegistry creates a registry backed by source. A nil source serves the
// built-in catalog.
func NewRegistry(source ManifestSource, opts ...Option) *Registry {
	r := &Registry{
		source:       source,
		now:          time.Now,
		ttl:          DefaultCacheTTL,
		fetchTimeout: DefaultFetchTimeout,
		logger:       log.Default(),
		policy:       AllowAllPermissions{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetManifest returns the cached manifest while it is fresh. Otherwise it
// fetches a new one, sharing a single in-flight fetch between concurrent
// callers. Fetch failures fall back to DefaultManifest and are not cached.
// The returned manifest must be treated as read-only.
func (r *Registry) GetManifest(ctx context.Context) *Manifest {
	if m := r.cached(); m != nil {
		return m
	}

	v, _, _ := r.group.Do(manifestKey, func() (interface{}, error) {
		if m := r.cached(); m != nil {
			return m, nil
		}
		return r.fetch(ctx), nil
	})
	return v.(*Manifest)
}

// cached returns the manifest if it is still inside the freshness window.
func (r *Registry) cached() *Manifest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.manifest == nil {
		return nil
	}
	if r.now().Sub(r.fetchedAt) >= r.ttl {
		return nil
	}
	return r.manifest
}

func (r *Registry) fetch(ctx context.Context) *Manifest {
	if r.source == nil {
		return DefaultManifest()
	}

	// The fetch is shared, so one caller's cancellation must not fail the rest.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.fetchTimeout)
	defer cancel()

	start := r.now()
	m, err := r.source.FetchManifest(fetchCtx)
	if err == nil {
		err = r.accept(m)
	}
	if err != nil {
		r.logger.Printf("MANIFEST_FALLBACK | error=%v", err)
		return DefaultManifest()
	}

	r.mu.Lock()
	r.manifest = m
	r.fetchedAt = r.now()
	r.mu.Unlock()

	r.logger.Printf("MANIFEST_FETCHED | version=%s commands=%d took=%s",
		m.Version, len(m.Commands), r.now().Sub(start))
	return m
}

// accept validates a fetched manifest against the registry's requirements.
func (r *Registry) accept(m *Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if r.minVersion == nil {
		return nil
	}
	v, err := semver.NewVersion(m.Version)
	if err != nil {
		return fmt.Errorf("%w: version %q: %v", ErrInvalidManifest, m.Version, err)
	}
	if v.LessThan(r.minVersion) {
		return fmt.Errorf("%w: version %s is older than %s", ErrInvalidManifest, v, r.minVersion)
	}
	return nil
}

// ClearCache drops the cached manifest so the next GetManifest refetches.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	r.manifest = nil
	r.fetchedAt = time.Time{}
	r.mu.Unlock()
}

// FetchedAt returns when the cached manifest was fetched, or the zero time.
func (r *Registry) FetchedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fetchedAt
}

// =============================================================================
// SEARCH
// =============================================================================

// SearchCommands returns enabled commands under prefix (all prefixes when
// empty) whose name, aliases or description contain query, in catalog order.
func (r *Registry) SearchCommands(ctx context.Context, query, prefix string) []Command {
	return r.GetManifest(ctx).Search(query, prefix)
}

// Search filters the manifest. See Registry.SearchCommands.
func (m *Manifest) Search(query, prefix string) []Command {
	results := []Command{}
	if m == nil {
		return results
	}

	q := normalize(query)
	for _, cmd := range m.Commands {
		if !cmd.Enabled {
			continue
		}
		if prefix != "" && cmd.Prefix != prefix {
			continue
		}
		if q != "" && !matches(cmd, q) {
			continue
		}
		results = append(results, cmd)
	}
	return results
}

func matches(cmd Command, q string) bool {
	if strings.Contains(normalize(cmd.Name), q) {
		return true
	}
	for _, alias := range cmd.Aliases {
		if strings.Contains(normalize(alias), q) {
			return true
		}
	}
	return strings.Contains(normalize(cmd.Description), q)
}

// normalize folds compatibility forms (full-width letters, ligatures) before
// lower-casing so "ｂｒａｎｃｈ" finds "branch".
func normalize(s string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
}

// =============================================================================
// EXECUTION CHECKS
// =============================================================================

// CanExecuteCommand reports whether userID may run cmd. Commands that
// require auth need a user; permission strings go through the policy.
func (r *Registry) CanExecuteCommand(cmd Command, userID string) bool {
	if cmd.RequiresAuth && userID == "" {
		return false
	}
	if cmd.RequiresPermission != "" {
		return r.policy.Allows(userID, cmd.RequiresPermission)
	}
	return true
}
