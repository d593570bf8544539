package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/thinkingspace/pkg/codec"
	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/model"
	"github.com/matzehuels/thinkingspace/pkg/store"
)

func sample(t *testing.T) *model.Document {
	t.Helper()
	d := model.New()
	require.NoError(t, d.AddNode(model.Node{ID: "api", Label: "API", Size: model.Vec3{2, 1, 1}, Color: "#3498db", Group: model.NoGroup}))
	require.NoError(t, d.AddNode(model.Node{ID: "db", Label: "DB", Position: model.Vec3{6, 0, 0}, Size: model.Vec3{2, 1, 1}, Color: "#3498db", Group: model.NoGroup}))
	require.NoError(t, d.AddConnection(model.Connection{ID: "api-db", From: "api", To: "db", Color: "#2ecc71"}))
	require.NoError(t, d.AddGroup(model.Group{ID: "backend", Label: "Backend", Bounds: model.DefaultGroupBounds, Color: "#f39c12", Wireframe: true}))
	return d
}

func newTestServer(t *testing.T, repo Repository) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	s := New(repo, Options{Store: mem, AllowedOrigins: []string{"http://localhost:3000"}}, log.New(io.Discard))
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, mem
}

func do(t *testing.T, method, url, contentType, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeError(t *testing.T, data []byte) errorResponse {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(data, &e), string(data))
	return e
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, NewMemoryRepository(nil))
	resp, body := do(t, http.MethodGet, srv.URL+"/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
}

func TestSections(t *testing.T) {
	srv, _ := newTestServer(t, NewMemoryRepository(sample(t)))

	tests := []struct {
		file   string
		status int
		want   string
	}{
		{"nodes.yaml", http.StatusOK, `id: "api"`},
		{"connections.yaml", http.StatusOK, `from: "api"`},
		{"groups.yaml", http.StatusOK, `id: "backend"`},
		{"nodes.json", http.StatusNotFound, string(errors.ErrCodeNotFound)},
		{"secrets.yaml", http.StatusNotFound, string(errors.ErrCodeNotFound)},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			resp, body := do(t, http.MethodGet, srv.URL+"/data/"+tt.file, "", "")
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, string(body), tt.want)
		})
	}
}

func TestSectionsLoadThroughLoader(t *testing.T) {
	dir := t.TempDir()
	want := sample(t)
	for _, s := range codec.Sections {
		data, err := codec.MarshalSection(want, codec.Block, s)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, s.Filename(codec.Block)), data, 0o644))
	}
	repo, err := OpenDir(context.Background(), dir, log.New(io.Discard))
	require.NoError(t, err)
	assert.True(t, repo.Document().Equal(want))
	assert.Equal(t, dir, repo.Dir())
}

func TestOpenDirEmpty(t *testing.T) {
	repo, err := OpenDir(context.Background(), t.TempDir(), log.New(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, 0, repo.Document().Len())

	_, err = OpenDir(context.Background(), "", log.New(io.Discard))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidPath))
}

func TestGetDocument(t *testing.T) {
	srv, _ := newTestServer(t, NewMemoryRepository(sample(t)))

	resp, body := do(t, http.MethodGet, srv.URL+"/api/document", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("ETag"))
	doc, err := codec.Unmarshal(body, codec.Block)
	require.NoError(t, err)
	assert.Equal(t, 4, doc.Len())

	resp, body = do(t, http.MethodGet, srv.URL+"/api/document?format=json", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc, err = codec.Unmarshal(body, codec.Record)
	require.NoError(t, err)
	assert.Equal(t, 4, doc.Len())

	resp, body = do(t, http.MethodGet, srv.URL+"/api/document?format=png", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, errors.ErrCodeInvalidFormat, decodeError(t, body).Code)
}

func TestPutDocument(t *testing.T) {
	dir := t.TempDir()
	repo, err := OpenDir(context.Background(), dir, log.New(io.Discard))
	require.NoError(t, err)
	srv, _ := newTestServer(t, repo)

	yamlBody, err := codec.Marshal(sample(t), codec.Block)
	require.NoError(t, err)

	resp, body := do(t, http.MethodPut, srv.URL+"/api/document", "application/yaml", string(yamlBody))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var stats model.Stats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, model.Stats{Nodes: 2, Connections: 1, Groups: 1}, stats)
	assert.True(t, repo.Document().Equal(sample(t)))

	// The section files were rewritten and load back.
	reopened, err := OpenDir(context.Background(), dir, log.New(io.Discard))
	require.NoError(t, err)
	assert.True(t, reopened.Document().Equal(sample(t)))

	jsonBody, err := codec.Marshal(model.New(), codec.Record)
	require.NoError(t, err)
	resp, _ = do(t, http.MethodPut, srv.URL+"/api/document", "application/json", string(jsonBody))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, repo.Document().Len())
}

func TestPutDocumentRejected(t *testing.T) {
	repo := NewMemoryRepository(sample(t))
	srv, _ := newTestServer(t, repo)

	tests := []struct {
		name  string
		query string
		body  string
		code  errors.Code
	}{
		{"malformed", "", "nodes: [", errors.ErrCodeParse},
		{"missing groups", "", "nodes: []\nconnections: []\n", errors.ErrCodeSchema},
		{"unknown dialect", "?format=xml", "<doc/>", errors.ErrCodeInvalidDialect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPut, srv.URL+"/api/document"+tt.query, "", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.code, decodeError(t, body).Code)
			assert.True(t, repo.Document().Equal(sample(t)), "rejected upload changed the document")
		})
	}
}

func TestRender(t *testing.T) {
	srv, mem := newTestServer(t, NewMemoryRepository(sample(t)))

	resp, body := do(t, http.MethodGet, srv.URL+"/api/render.dot", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/vnd.graphviz", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), `"node:api" -> "node:db"`)
	assert.Empty(t, resp.Header.Get("X-Cache"))

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/render.dot", "", "")
	assert.Equal(t, "hit", resp.Header.Get("X-Cache"))

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/render.dot?refresh=true", "", "")
	assert.Empty(t, resp.Header.Get("X-Cache"))

	resp, body = do(t, http.MethodGet, srv.URL+"/api/render.png?width=200&height=100", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(body), "\x89PNG"))
	assert.Equal(t, 2, mem.Len())

	resp, body = do(t, http.MethodGet, srv.URL+"/api/render.png?width=wide", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, errors.ErrCodeInvalidInput, decodeError(t, body).Code)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/render.gif", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, errors.ErrCodeInvalidFormat, decodeError(t, body).Code)
}

func TestSnapshots(t *testing.T) {
	srv, mem := newTestServer(t, NewMemoryRepository(nil))
	url := srv.URL + "/api/snapshots/team"

	resp, body := do(t, http.MethodGet, url, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, errors.ErrCodeSnapshotNotFound, decodeError(t, body).Code)

	yamlBody, err := codec.Marshal(sample(t), codec.Block)
	require.NoError(t, err)
	resp, _ = do(t, http.MethodPut, url, "application/yaml", string(yamlBody))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, ok, _ := mem.Get(context.Background(), "snapshot:team")
	assert.True(t, ok)

	resp, body = do(t, http.MethodGet, url, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap snapshotResponse
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, "team", snap.Workspace)
	assert.NotEmpty(t, snap.Hash)
	doc, err := codec.Unmarshal(snap.Document, codec.Record)
	require.NoError(t, err)
	assert.True(t, doc.Equal(sample(t)))

	resp, _ = do(t, http.MethodDelete, url, "", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, http.MethodGet, url, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, NewMemoryRepository(nil))
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/document", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeSchema, http.StatusBadRequest},
		{errors.ErrCodeNotFound, http.StatusNotFound},
		{errors.ErrCodeSnapshotNotFound, http.StatusNotFound},
		{errors.ErrCodeUnsupported, http.StatusUnsupportedMediaType},
		{errors.ErrCodeTimeout, http.StatusGatewayTimeout},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.code), tt.code)
	}
}
