package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formfiller-go/internal/extractor"
	"formfiller-go/internal/index"
	"formfiller-go/internal/model"
	"formfiller-go/internal/synthesizer"
	"formfiller-go/internal/vectorstore"
)

type stubEmbeddingClient struct {
	vector []float32
	err    error
}

func (s *stubEmbeddingClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vs, err := s.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (s *stubEmbeddingClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, len(s.vector))
		copy(v, s.vector)
		out[i] = v
	}
	return out, nil
}

type stubLLM struct {
	available bool
	answer    string
}

func (s *stubLLM) Available(ctx context.Context) bool { return s.available }

func (s *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return s.answer, nil
}

func (s *stubLLM) EnsureModel(ctx context.Context) error { return nil }

func storeWithSnapshot(snap *vectorstore.Snapshot) *vectorstore.Store {
	st := vectorstore.NewStore("")
	st.Swap(snap)
	return st
}

func resumeSnapshot() *vectorstore.Snapshot {
	return &vectorstore.Snapshot{
		Chunks: []model.Chunk{
			{Content: "Jane Doe\njane@example.com", Source: "resume.txt", ChunkIndex: 0, TotalChunks: 3},
			{Content: "Senior engineer with a passion for distributed systems.", Source: "resume.txt", ChunkIndex: 1, TotalChunks: 3},
			{Content: "I have five years of golang experience.", Source: "resume.txt", ChunkIndex: 2, TotalChunks: 3},
		},
		Embeddings: [][]float32{{1, 0}, {0, 1}, {0.6, 0.8}},
		ModelID:    "test-model",
	}
}

func newService(store *vectorstore.Store, emb *stubEmbeddingClient, llmClient *stubLLM) QueryService {
	ix := index.NewIndexer(emb, "test-model")
	var synth *synthesizer.Synthesizer
	if llmClient == nil {
		synth = synthesizer.New(nil, extractor.New())
	} else {
		synth = synthesizer.New(llmClient, extractor.New())
	}
	return NewQueryService(store, ix, synth, 2)
}

func TestAnswerEmptyCorpus(t *testing.T) {
	svc := newService(storeWithSnapshot(nil), &stubEmbeddingClient{vector: []float32{1, 0}}, nil)

	ans, err := svc.Answer(context.Background(), model.Query{Text: "golang experience"})
	require.NoError(t, err)
	assert.Equal(t, model.SentinelNotInDB, ans.Text)
	assert.Equal(t, model.ProvenanceNotInDB, ans.Provenance)
	assert.Equal(t, 0.0, ans.Confidence)
}

func TestAnswerPersonalInfoShortcut(t *testing.T) {
	svc := newService(storeWithSnapshot(resumeSnapshot()), &stubEmbeddingClient{err: errors.New("must not be called")}, nil)

	ans, err := svc.Answer(context.Background(), model.Query{Text: "What is your email?"})
	require.NoError(t, err)
	// 个人信息捷径不经过向量检索，直接使用文档头部
	assert.Equal(t, "jane@example.com", ans.Text)
	assert.Equal(t, model.ProvenanceHeaderExtraction, ans.Provenance)
	assert.Equal(t, 1.0, ans.Confidence)
}

func TestAnswerPersonalKeywordEmptyCorpus(t *testing.T) {
	svc := newService(storeWithSnapshot(nil), &stubEmbeddingClient{vector: []float32{1, 0}}, nil)

	ans, err := svc.Answer(context.Background(), model.Query{Text: "email"})
	require.NoError(t, err)
	assert.Equal(t, model.SentinelNotInDB, ans.Text)
	assert.Equal(t, model.ProvenanceNotInDB, ans.Provenance)
}

func TestAnswerRetrievalPathRuleExtraction(t *testing.T) {
	svc := newService(storeWithSnapshot(resumeSnapshot()), &stubEmbeddingClient{vector: []float32{0, 2}}, nil)

	ans, err := svc.Answer(context.Background(), model.Query{Text: "passion distributed"})
	require.NoError(t, err)
	assert.Equal(t, "Senior engineer with a passion for distributed systems", ans.Text)
	assert.Equal(t, model.ProvenanceRuleExtraction, ans.Provenance)
	// 置信度等于最高命中得分，查询向量与第 1 行完全对齐
	assert.InDelta(t, 1.0, ans.Confidence, 1e-6)
}

func TestAnswerRetrievalPathLLM(t *testing.T) {
	llmClient := &stubLLM{available: true, answer: "distributed systems"}
	svc := newService(storeWithSnapshot(resumeSnapshot()), &stubEmbeddingClient{vector: []float32{0, 2}}, llmClient)

	ans, err := svc.Answer(context.Background(), model.Query{Text: "passion distributed"})
	require.NoError(t, err)
	assert.Equal(t, "distributed systems", ans.Text)
	assert.Equal(t, model.ProvenanceLLM, ans.Provenance)
}

func TestAnswerDimensionMismatchReturnsSentinel(t *testing.T) {
	// 快照向量是二维的，当前模型返回三维向量：得分无意义，必须显式放弃
	svc := newService(storeWithSnapshot(resumeSnapshot()), &stubEmbeddingClient{vector: []float32{0, 1, 0}}, nil)

	ans, err := svc.Answer(context.Background(), model.Query{Text: "golang experience"})
	require.NoError(t, err)
	assert.Equal(t, model.SentinelNotInDB, ans.Text)
	assert.Equal(t, model.ProvenanceNotInDB, ans.Provenance)
	assert.Equal(t, 0.0, ans.Confidence)
}

func TestAnswerEmbeddingFailure(t *testing.T) {
	svc := newService(storeWithSnapshot(resumeSnapshot()), &stubEmbeddingClient{err: errors.New("api down")}, nil)

	_, err := svc.Answer(context.Background(), model.Query{Text: "golang experience"})
	assert.Error(t, err)
}
