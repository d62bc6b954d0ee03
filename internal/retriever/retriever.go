// Package retriever 在当前快照上做暴力 top-K 余弦检索。
package retriever

import (
	"errors"
	"sort"
)

// Hit 是一条检索命中：切片下标与相似度得分。
type Hit struct {
	Index int
	Score float32
}

// Search 计算 query 与矩阵每行的点积（两侧均为单位向量，即余弦相似度），
// 按得分降序返回前 min(k, N) 条；得分相同时取下标更小者，结果确定。
// 不做阈值过滤；语料为空时返回空序列，由调用方按"无答案"处理。
func Search(embeddings [][]float32, query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, errors.New("topK 必须为正数")
	}
	if len(embeddings) == 0 {
		return nil, nil
	}

	hits := make([]Hit, len(embeddings))
	for i, row := range embeddings {
		hits[i] = Hit{Index: i, Score: dot(row, query)}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Index < hits[j].Index
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
