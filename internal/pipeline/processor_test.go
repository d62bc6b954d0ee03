package pipeline

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formfiller-go/internal/config"
	"formfiller-go/internal/index"
	"formfiller-go/internal/ingest"
	"formfiller-go/internal/vectorstore"
)

type fakeTextProvider struct{}

func (fakeTextProvider) ExtractText(ctx context.Context, fileReader io.Reader, fileName string) (string, error) {
	data, err := io.ReadAll(fileReader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type fakeEmbeddingClient struct {
	err   error
	calls int
}

func (f *fakeEmbeddingClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vs, err := f.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (f *fakeEmbeddingClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, float32(i)}
	}
	return out, nil
}

func newTestProcessor(t *testing.T, embClient *fakeEmbeddingClient) (*Processor, *vectorstore.Store) {
	t.Helper()
	store := vectorstore.NewStore(filepath.Join(t.TempDir(), "snapshot.json"))
	p := NewProcessor(
		ingest.NewExtractor(fakeTextProvider{}),
		index.NewIndexer(embClient, "test-model"),
		store,
		config.MinIOConfig{},
		config.RAGConfig{ChunkSize: 20, ChunkOverlap: 5},
	)
	return p, store
}

func TestRebuildFromSourcesBuildsSnapshot(t *testing.T) {
	p, store := newTestProcessor(t, &fakeEmbeddingClient{})

	sources := []Source{
		{Name: "resume.txt", Data: []byte("Jane Doe is a software engineer with golang experience")},
		{Name: "photo.png", Data: []byte{0x89}},
	}

	snap, err := p.RebuildFromSources(context.Background(), sources)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Greater(t, snap.Len(), 0)
	assert.Equal(t, "test-model", snap.ModelID)
	assert.Len(t, snap.Embeddings, snap.Len())

	// 不支持的文件被跳过，所有分块都来自 resume.txt
	for _, c := range snap.Chunks {
		assert.Equal(t, "resume.txt", c.Source)
	}

	// 成功后快照既落盘又被切换为当前快照
	assert.Same(t, snap, store.Current())
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, snap.Len(), loaded.Len())
}

func TestRebuildFromSourcesEmptyCorpus(t *testing.T) {
	p, store := newTestProcessor(t, &fakeEmbeddingClient{})

	snap, err := p.RebuildFromSources(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 0, snap.Len())
	assert.Same(t, snap, store.Current())
}

func TestRebuildFromSourcesEmbeddingFailureKeepsSnapshot(t *testing.T) {
	p, store := newTestProcessor(t, &fakeEmbeddingClient{err: errors.New("api down")})

	old := &vectorstore.Snapshot{Chunks: nil, Embeddings: nil, ModelID: "old"}
	store.Swap(old)

	_, err := p.RebuildFromSources(context.Background(), []Source{
		{Name: "resume.txt", Data: []byte("some content to index")},
	})
	require.Error(t, err)
	// 整体失败时不产出部分快照，当前快照不变
	assert.Same(t, old, store.Current())
}

func TestRebuildFromSourcesInvalidChunkConfig(t *testing.T) {
	store := vectorstore.NewStore(filepath.Join(t.TempDir(), "snapshot.json"))
	p := NewProcessor(
		ingest.NewExtractor(fakeTextProvider{}),
		index.NewIndexer(&fakeEmbeddingClient{}, "test-model"),
		store,
		config.MinIOConfig{},
		config.RAGConfig{ChunkSize: 10, ChunkOverlap: 10},
	)

	_, err := p.RebuildFromSources(context.Background(), []Source{
		{Name: "resume.txt", Data: []byte("content")},
	})
	assert.ErrorIs(t, err, ingest.ErrInvalidChunkConfig)
}

func TestConcurrentRebuildsKeepDiskAndMemoryPaired(t *testing.T) {
	p, store := newTestProcessor(t, &fakeEmbeddingClient{})

	a := []Source{{Name: "a.txt", Data: []byte("content of the first rebuild run")}}
	b := []Source{{Name: "b.txt", Data: []byte("a longer corpus for the second rebuild that yields more chunks than the first")}}

	var wg sync.WaitGroup
	for _, sources := range [][]Source{a, b} {
		wg.Add(1)
		go func(srcs []Source) {
			defer wg.Done()
			_, err := p.RebuildFromSources(context.Background(), srcs)
			assert.NoError(t, err)
		}(sources)
	}
	wg.Wait()

	// 重建串行执行后，落盘快照与内存快照必须来自同一次重建
	current := store.Current()
	require.NotNil(t, current)
	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, current.Len(), loaded.Len())
	require.Greater(t, current.Len(), 0)
	assert.Equal(t, current.Chunks[0].Source, loaded.Chunks[0].Source)
}

func TestChunkIndexingMetadata(t *testing.T) {
	p, _ := newTestProcessor(t, &fakeEmbeddingClient{})

	snap, err := p.RebuildFromSources(context.Background(), []Source{
		{Name: "a.txt", Data: []byte("0123456789012345678901234567890123456789")},
	})
	require.NoError(t, err)
	require.Greater(t, snap.Len(), 1)

	total := snap.Chunks[0].TotalChunks
	for i, c := range snap.Chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, total, c.TotalChunks)
	}
}
