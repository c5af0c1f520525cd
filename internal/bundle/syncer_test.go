package bundle

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/garyellow/demo-servers/internal/logger"
	"github.com/garyellow/demo-servers/internal/r2client"
	"github.com/garyellow/demo-servers/internal/staticsite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	data    []byte
	etag    string
	headErr error
	heads   int
}

func (m *memoryStore) put(data []byte, etag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data, m.etag = data, etag
}

func (m *memoryStore) Download(_ context.Context, _ string) (io.ReadCloser, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, "", r2client.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(m.data)), m.etag, nil
}

func (m *memoryStore) HeadObject(_ context.Context, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heads++
	if m.headErr != nil {
		return "", m.headErr
	}
	if m.data == nil {
		return "", r2client.ErrNotFound
	}
	return m.etag, nil
}

func packTree(t *testing.T, files map[string]string) []byte {
	t.Helper()
	src := t.TempDir()
	writeTree(t, src, files)
	var buf bytes.Buffer
	_, err := Pack(&buf, src)
	require.NoError(t, err)
	return buf.Bytes()
}

func newSyncer(t *testing.T, store Store, interval time.Duration) (*Syncer, *staticsite.Site, string) {
	t.Helper()
	log := logger.NewWithWriter("error", io.Discard)
	site, err := staticsite.New(t.TempDir(), log)
	require.NoError(t, err)
	dataDir := filepath.Join(t.TempDir(), "data")
	s := NewSyncer(store, site, Config{Key: "site.tar.zst", DataDir: dataDir, PollInterval: interval}, log)
	return s, site, dataDir
}

func TestSyncer_SyncPublishesAndReplaces(t *testing.T) {
	store := &memoryStore{}
	store.put(packTree(t, map[string]string{"index.html": "v1"}), "etag-1")
	s, site, dataDir := newSyncer(t, store, 0)

	require.NoError(t, s.Sync(context.Background()))
	first := site.Root()
	assert.Equal(t, "etag-1", s.ETag())
	assert.Equal(t, dataDir, filepath.Dir(first))
	data, err := os.ReadFile(filepath.Join(first, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	store.put(packTree(t, map[string]string{"index.html": "v2"}), "etag-2")
	require.NoError(t, s.Sync(context.Background()))
	second := site.Root()
	assert.NotEqual(t, first, second)
	assert.Equal(t, "etag-2", s.ETag())

	data, err = os.ReadFile(filepath.Join(second, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	// A request that resolved against the first root can still open its file.
	data, err = os.ReadFile(filepath.Join(first, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	store.put(packTree(t, map[string]string{"index.html": "v3"}), "etag-3")
	require.NoError(t, s.Sync(context.Background()))
	assert.NoDirExists(t, first)
	assert.DirExists(t, second)
	assert.Equal(t, "etag-3", s.ETag())
}

func TestSyncer_SyncMissingBundle(t *testing.T) {
	s, site, _ := newSyncer(t, &memoryStore{}, 0)
	before := site.Root()

	err := s.Sync(context.Background())
	require.ErrorIs(t, err, r2client.ErrNotFound)
	assert.Equal(t, before, site.Root())
	assert.Empty(t, s.ETag())
}

func TestSyncer_SyncCorruptBundleKeepsRoot(t *testing.T) {
	store := &memoryStore{}
	store.put([]byte("garbage"), "etag-bad")
	s, site, dataDir := newSyncer(t, store, 0)
	before := site.Root()

	require.Error(t, s.Sync(context.Background()))
	assert.Equal(t, before, site.Root())

	entries, err := os.ReadDir(dataDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed extraction must be cleaned up")
}

func TestSyncer_PollOnce(t *testing.T) {
	store := &memoryStore{}
	store.put(packTree(t, map[string]string{"index.html": "v1"}), "etag-1")
	s, _, _ := newSyncer(t, store, 0)
	require.NoError(t, s.Sync(context.Background()))

	assert.False(t, s.pollOnce(context.Background()), "unchanged etag")

	store.put(packTree(t, map[string]string{"index.html": "v2"}), "etag-2")
	assert.True(t, s.pollOnce(context.Background()))
	assert.Equal(t, "etag-2", s.ETag())

	store.mu.Lock()
	store.headErr = errors.New("network down")
	store.mu.Unlock()
	assert.False(t, s.pollOnce(context.Background()))
}

func TestSyncer_PollStopsOnCancel(t *testing.T) {
	store := &memoryStore{}
	store.put(packTree(t, map[string]string{"index.html": "v1"}), "etag-1")
	s, _, _ := newSyncer(t, store, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Poll(ctx) }()

	assert.Eventually(t, func() bool { return s.ETag() == "etag-1" }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Poll did not return after cancel")
	}
}

func TestSyncer_PollDisabled(t *testing.T) {
	s, _, _ := newSyncer(t, &memoryStore{}, 0)
	assert.NoError(t, s.Poll(context.Background()))
}
