package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchOrdersByScoreDesc(t *testing.T) {
	embeddings := [][]float32{
		{0, 1},
		{1, 0},
		{0.6, 0.8},
	}
	query := []float32{1, 0}

	hits, err := Search(embeddings, query, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, 1, hits[0].Index)
	assert.Equal(t, 2, hits[1].Index)
	assert.Equal(t, 0, hits[2].Index)
}

func TestSearchTieBreaksByIndex(t *testing.T) {
	embeddings := [][]float32{
		{1, 0},
		{1, 0},
		{1, 0},
	}
	query := []float32{1, 0}

	hits, err := Search(embeddings, query, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	// 得分相同时下标小者优先，保证结果确定
	assert.Equal(t, 0, hits[0].Index)
	assert.Equal(t, 1, hits[1].Index)
}

func TestSearchClampsK(t *testing.T) {
	embeddings := [][]float32{{1, 0}, {0, 1}}

	hits, err := Search(embeddings, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestSearchEmptyCorpus(t *testing.T) {
	hits, err := Search(nil, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchInvalidK(t *testing.T) {
	_, err := Search([][]float32{{1}}, []float32{1}, 0)
	assert.Error(t, err)

	_, err = Search([][]float32{{1}}, []float32{1}, -1)
	assert.Error(t, err)
}
