// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/syna-omnibox/internal/commands"
	"github.com/jeranaias/syna-omnibox/internal/mention"
	"github.com/jeranaias/syna-omnibox/internal/telemetry"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// recordedRequest captures what the test server saw.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   map[string]any
}

type testServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *testServer {
	t.Helper()
	ts := &testServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
		ts.mu.Lock()
		ts.requests = append(ts.requests, rec)
		ts.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) last(t *testing.T) recordedRequest {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	require.NotEmpty(t, ts.requests)
	return ts.requests[len(ts.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func newTestClient(ts *testServer, opts ...Option) *Client {
	opts = append([]Option{WithLogger(log.New(io.Discard, "", 0)), WithRateLimit(0, 0)}, opts...)
	return New(ts.URL+"/", opts...)
}

// =============================================================================
// TRANSPORT TESTS
// =============================================================================

func TestClient_SetsHeaders(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"results":[]}`)
	})
	client := newTestClient(ts, WithToken("  secret-token "))

	_, err := client.Search(context.Background(), SearchRequest{Query: "roadmap"})
	require.NoError(t, err)

	req := ts.last(t)
	assert.Equal(t, "Bearer secret-token", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	_, err = uuid.Parse(req.Header.Get("X-Request-ID"))
	assert.NoError(t, err, "request id should be a uuid")
}

func TestClient_NoTokenNoAuthHeader(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	client := newTestClient(ts)

	_, err := client.FetchManifest(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ts.last(t).Header.Get("Authorization"))
}

func TestClient_StatusError(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, `{"detail":"search index rebuilding"}`)
	})
	client := newTestClient(ts)

	_, err := client.Search(context.Background(), SearchRequest{Query: "x"})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Status)
	assert.Equal(t, "search index rebuilding", se.Message)
	assert.Equal(t, "/search", se.Path)
	assert.True(t, IsStatus(err, http.StatusServiceUnavailable))
	assert.False(t, IsStatus(err, http.StatusNotFound))
}

func TestClient_StatusErrorPlainBody(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	})
	client := newTestClient(ts)

	err := client.CreateBacklink(context.Background(), "u1", mention.Pill{ID: "p1"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "gateway exploded", se.Message)
}

func TestClient_TransportError(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	client := newTestClient(ts)
	ts.Close()

	_, err := client.Search(context.Background(), SearchRequest{Query: "x"})
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se), "transport failures are not status errors")
}

func TestClient_ResponseTooLarge(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(strings.Repeat("a", MaxResponseSize+10)))
	})
	client := newTestClient(ts)

	_, err := client.Search(context.Background(), SearchRequest{Query: "x"})
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	client := newTestClient(ts, WithRateLimit(0.001, 1))

	_, err := client.FetchManifest(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.FetchManifest(ctx)
	assert.Error(t, err, "second request should wait past the deadline")
}

// =============================================================================
// ENDPOINT TESTS
// =============================================================================

func TestFetchManifest(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{
			"version": "2.3.0",
			"lastUpdated": "2025-04-01T00:00:00Z",
			"commands": [{"id":"deploy","name":"deploy","description":"Deploy","category":"ops","prefix":"/","enabled":true,"requiresAuth":true}]
		}`)
	})
	client := newTestClient(ts)

	m, err := client.FetchManifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.3.0", m.Version)
	require.Len(t, m.Commands, 1)
	assert.True(t, m.Commands[0].RequiresAuth)

	req := ts.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/v1/commands/manifest", req.Path)

	// The client is a valid registry source
	var _ commands.ManifestSource = client
}

func TestExecuteCommand(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	})
	client := newTestClient(ts)

	out, err := client.ExecuteCommand(context.Background(), ExecuteRequest{
		CommandID: "agents",
		Context:   map[string]any{"userId": "u1"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(out))

	req := ts.last(t)
	assert.Equal(t, "/api/v1/commands/execute", req.Path)
	assert.Equal(t, "agents", req.Body["commandId"])
	assert.Equal(t, []any{}, req.Body["args"], "args is always an array")
}

func TestWorkspaces(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"ws_1","name":"Design"}`)
	})
	client := newTestClient(ts)
	ctx := context.Background()

	ws, err := client.CreateWorkspace(ctx, "Design", "u1")
	require.NoError(t, err)
	assert.Equal(t, "ws_1", ws.ID)
	assert.Equal(t, "/api/v1/workspaces", ts.last(t).Path)
	assert.Equal(t, "Design", ts.last(t).Body["name"])

	_, err = client.SwitchWorkspace(ctx, "design", "u1")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/workspaces/switch", ts.last(t).Path)
	assert.Equal(t, "design", ts.last(t).Body["workspace"])
}

func TestDocuments(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/recent") {
			writeJSON(w, http.StatusOK, `[{"id":"d1","title":"Spec"},{"id":"d2","title":"Notes"}]`)
			return
		}
		writeJSON(w, http.StatusOK, `{"id":"doc 7","title":"Plan"}`)
	})
	client := newTestClient(ts)
	ctx := context.Background()

	doc, err := client.GetDocument(ctx, "doc 7")
	require.NoError(t, err)
	assert.Equal(t, "Plan", doc.Title)
	assert.Equal(t, "/api/v1/documents/doc 7", ts.last(t).Path)

	docs, err := client.RecentDocuments(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, "limit=5&userId=u1", ts.last(t).Query)

	_, err = client.GetDocument(ctx, "")
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestBranchThread(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"new_thread_id":"t2","parent_thread_id":"t1","branch_point":"m9"}`)
	})
	client := newTestClient(ts)

	b, err := client.BranchThread(context.Background(), "t1", "m9", "Side quest")
	require.NoError(t, err)
	assert.Equal(t, "t2", b.NewThreadID)
	assert.Equal(t, "t1", b.ParentThreadID)

	req := ts.last(t)
	assert.Equal(t, "/api/v1/threads/t1/branch", req.Path)
	assert.Equal(t, "message_id=m9", req.Query)
	assert.Equal(t, "Side quest", req.Body["title"])

	_, err = client.BranchThread(context.Background(), "", "", "")
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestSearchMentions(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"results":[{"id":"u_1","type":"user","name":"alice","displayName":"Alice Liddell"}]}`)
	})
	client := newTestClient(ts)

	results, err := client.SearchMentions(context.Background(), "ali", mention.TypeUser)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Alice Liddell", results[0].DisplayName)
	assert.Equal(t, mention.TypeUser, results[0].Type)

	req := ts.last(t)
	assert.Equal(t, "/api/v1/mentions/search", req.Path)
	assert.Equal(t, "user", req.Body["type"])
}

func TestCreateBacklink(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	client := newTestClient(ts)

	err := client.CreateBacklink(context.Background(), "u1", mention.Pill{ID: "doc_1", Type: mention.TypeDocument, Name: "Roadmap"})
	require.NoError(t, err)

	req := ts.last(t)
	assert.Equal(t, "/api/v1/mentions/backlinks", req.Path)
	assert.Equal(t, "doc_1", req.Body["entityId"])
	assert.Equal(t, "document", req.Body["entityType"])
}

func TestSendTelemetry(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	client := newTestClient(ts)

	var sink telemetry.Sink = client
	err := sink.SendTelemetry(context.Background(), telemetry.Entry{
		ID:        "01J0000000000000000000000",
		CommandID: "command:branch",
		Prefix:    "/",
		Duration:  1500 * time.Millisecond,
		Success:   true,
	})
	require.NoError(t, err)

	req := ts.last(t)
	assert.Equal(t, "/api/v1/telemetry/commands", req.Path)
	assert.Equal(t, float64(1500), req.Body["duration"])
	assert.Equal(t, "command:branch", req.Body["commandId"])
}
