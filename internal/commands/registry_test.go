// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// countingSource counts fetches and returns manifest or err.
type countingSource struct {
	calls    atomic.Int32
	manifest *Manifest
	err      error
}

func (s *countingSource) FetchManifest(ctx context.Context) (*Manifest, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.manifest, nil
}

func remoteManifest(version string) *Manifest {
	return &Manifest{
		Version: version,
		Commands: []Command{
			{ID: "deploy", Name: "deploy", Description: "Deploy the workspace", Prefix: "/", Enabled: true},
			{ID: "hidden", Name: "hidden", Description: "Disabled command", Prefix: "/", Enabled: false},
		},
		LastUpdated: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// =============================================================================
// MANIFEST CACHE TESTS
// =============================================================================

func TestGetManifest_CachesWithinTTL(t *testing.T) {
	src := &countingSource{manifest: remoteManifest("2.0.0")}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	reg := NewRegistry(src, WithClock(clock.Now), WithLogger(quietLogger()))

	ctx := context.Background()
	m := reg.GetManifest(ctx)
	assert.Equal(t, "2.0.0", m.Version)

	clock.Advance(4 * time.Minute)
	reg.GetManifest(ctx)
	assert.Equal(t, int32(1), src.calls.Load(), "fresh manifest should not refetch")

	clock.Advance(2 * time.Minute)
	reg.GetManifest(ctx)
	assert.Equal(t, int32(2), src.calls.Load(), "stale manifest should refetch")
}

func TestGetManifest_ConcurrentCallersShareOneFetch(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	src := SourceFunc(func(ctx context.Context) (*Manifest, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return remoteManifest("2.0.0"), nil
	})
	reg := NewRegistry(src, WithLogger(quietLogger()))

	var wg sync.WaitGroup
	results := make([]*Manifest, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = reg.GetManifest(context.Background())
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1] = reg.GetManifest(context.Background())
	}()

	// Give the second caller time to join the in-flight fetch
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Same(t, results[0], results[1])
}

func TestGetManifest_FailureFallsBackToDefault(t *testing.T) {
	src := &countingSource{err: errors.New("connection refused")}
	reg := NewRegistry(src, WithLogger(quietLogger()))

	m := reg.GetManifest(context.Background())
	require.NotNil(t, m)
	assert.Equal(t, DefaultManifest(), m)

	// The fallback is not cached; the next call retries the source
	reg.GetManifest(context.Background())
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestGetManifest_InvalidManifestFallsBack(t *testing.T) {
	bad := &Manifest{
		Version:  "2.0.0",
		Commands: []Command{{ID: "x", Name: "x", Prefix: "@", Enabled: true}},
	}
	reg := NewRegistry(&countingSource{manifest: bad}, WithLogger(quietLogger()))

	m := reg.GetManifest(context.Background())
	assert.Equal(t, BuiltinVersion, m.Version)
}

func TestGetManifest_MinVersionGate(t *testing.T) {
	src := &countingSource{manifest: remoteManifest("1.2.0")}
	reg := NewRegistry(src, WithMinVersion("1.5.0"), WithLogger(quietLogger()))
	assert.Equal(t, BuiltinVersion, reg.GetManifest(context.Background()).Version)

	src.manifest = remoteManifest("1.6.3")
	assert.Equal(t, "1.6.3", reg.GetManifest(context.Background()).Version)
}

func TestGetManifest_NilSourceServesDefault(t *testing.T) {
	reg := NewRegistry(nil)
	m := reg.GetManifest(context.Background())
	assert.Equal(t, BuiltinVersion, m.Version)
	assert.NotEmpty(t, m.Commands)
}

func TestGetManifest_CallerCancellationDoesNotFailFetch(t *testing.T) {
	src := SourceFunc(func(ctx context.Context) (*Manifest, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return remoteManifest("3.0.0"), nil
	})
	reg := NewRegistry(src, WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, "3.0.0", reg.GetManifest(ctx).Version)
}

func TestClearCache_TriggersExactlyOneFetch(t *testing.T) {
	src := &countingSource{manifest: remoteManifest("2.0.0")}
	reg := NewRegistry(src, WithLogger(quietLogger()))
	ctx := context.Background()

	reg.GetManifest(ctx)
	require.Equal(t, int32(1), src.calls.Load())
	assert.False(t, reg.FetchedAt().IsZero())

	reg.ClearCache()
	assert.True(t, reg.FetchedAt().IsZero())

	reg.GetManifest(ctx)
	reg.GetManifest(ctx)
	assert.Equal(t, int32(2), src.calls.Load())
}

// =============================================================================
// SEARCH TESTS
// =============================================================================

func TestSearchCommands_BranchReturnsSingleCommand(t *testing.T) {
	reg := NewRegistry(nil)

	results := reg.SearchCommands(context.Background(), "branch", "/")
	require.Len(t, results, 1)
	assert.Equal(t, "branch", results[0].ID)
}

func TestSearchCommands_NoMatch(t *testing.T) {
	reg := NewRegistry(nil)

	results := reg.SearchCommands(context.Background(), "nonexistent", "")
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearchCommands_Filters(t *testing.T) {
	reg := NewRegistry(nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		query  string
		prefix string
		want   []string
	}{
		{"alias match", "ws", "/", []string{"workspace"}},
		{"case insensitive", "SWITCH", "/", []string{"switch"}},
		{"description match", "read-only", "", []string{"sql"}},
		{"prefix only", "", "^", []string{"open", "recent"}},
		{"prefix is exact", "", "//", []string{"search"}},
		{"full-width query", "ｂｒａｎｃｈ", "/", []string{"branch"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ids []string
			for _, cmd := range reg.SearchCommands(ctx, tc.query, tc.prefix) {
				ids = append(ids, cmd.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestSearchCommands_SkipsDisabled(t *testing.T) {
	reg := NewRegistry(&countingSource{manifest: remoteManifest("2.0.0")}, WithLogger(quietLogger()))

	results := reg.SearchCommands(context.Background(), "", "/")
	require.Len(t, results, 1)
	assert.Equal(t, "deploy", results[0].ID)
}

func TestSearchCommands_EmptyQueryKeepsCatalogOrder(t *testing.T) {
	reg := NewRegistry(nil)

	var want []string
	for _, cmd := range DefaultManifest().Commands {
		if cmd.Prefix == "/" {
			want = append(want, cmd.ID)
		}
	}

	var got []string
	for _, cmd := range reg.SearchCommands(context.Background(), "", "/") {
		got = append(got, cmd.ID)
	}
	assert.Equal(t, want, got)
}

// =============================================================================
// EXECUTION CHECK TESTS
// =============================================================================

type denyPolicy struct{}

func (denyPolicy) Allows(string, string) bool { return false }

func TestCanExecuteCommand(t *testing.T) {
	reg := NewRegistry(nil)
	m := DefaultManifest()

	sql, ok := m.Find(IDSQL)
	require.True(t, ok)
	branch, ok := m.Find(IDBranch)
	require.True(t, ok)

	assert.False(t, reg.CanExecuteCommand(sql, ""), "auth required without user")
	assert.True(t, reg.CanExecuteCommand(sql, "u1"), "permissions are not enforced")
	assert.True(t, reg.CanExecuteCommand(branch, ""))

	strict := NewRegistry(nil, WithPermissionPolicy(denyPolicy{}))
	assert.False(t, strict.CanExecuteCommand(sql, "u1"))
	assert.True(t, strict.CanExecuteCommand(branch, "u1"))
}

// =============================================================================
// MANIFEST TESTS
// =============================================================================

func TestDefaultManifest_IsValidAndFresh(t *testing.T) {
	m := DefaultManifest()
	require.NoError(t, m.Validate())

	m.Commands[0].Name = "mutated"
	assert.NotEqual(t, "mutated", DefaultManifest().Commands[0].Name)
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name string
		m    *Manifest
	}{
		{"nil", nil},
		{"no version", &Manifest{}},
		{"empty id", &Manifest{Version: "1", Commands: []Command{{Prefix: "/"}}}},
		{"duplicate id", &Manifest{Version: "1", Commands: []Command{{ID: "a", Prefix: "/"}, {ID: "a", Prefix: "/"}}}},
		{"mention prefix", &Manifest{Version: "1", Commands: []Command{{ID: "a", Prefix: "@"}}}},
		{"bad param type", &Manifest{Version: "1", Commands: []Command{{ID: "a", Prefix: "/", Parameters: []Parameter{{Name: "x", Type: "date"}}}}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.m.Validate(), ErrInvalidManifest)
		})
	}
}

func TestCommandUsage(t *testing.T) {
	cmd, ok := DefaultManifest().Find(IDWorkspaceSwitch)
	require.True(t, ok)
	assert.Equal(t, "/switch <workspace>", cmd.Usage())

	cmd, ok = DefaultManifest().Find(IDBranch)
	require.True(t, ok)
	assert.Equal(t, "/branch [title]", cmd.Usage())
}
