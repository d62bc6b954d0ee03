// Package index 负责把文本批量编码为单位范数向量。
package index

import (
	"context"
	"fmt"
	"math"

	"formfiller-go/pkg/embedding"
	"formfiller-go/pkg/log"
)

// Indexer 调用 embedding 模型并对每行做 L2 归一化。
// 它是纯函数式的：不持有快照，由调用方负责组装。
type Indexer struct {
	client  embedding.Client
	modelID string
}

// NewIndexer 创建一个新的 Indexer 实例。
func NewIndexer(client embedding.Client, modelID string) *Indexer {
	return &Indexer{client: client, modelID: modelID}
}

// ModelID 返回所用 embedding 模型的标识。
func (ix *Indexer) ModelID() string {
	return ix.modelID
}

// Encode 批量向量化并归一化。输出行数等于输入数，第 i 行对应第 i 条输入。
// embedding 能力不可用时整体失败，调用方不得产出部分快照。
func (ix *Indexer) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := ix.client.CreateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding 能力不可用: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding 返回行数不匹配: want %d, got %d", len(texts), len(vectors))
	}

	for i, v := range vectors {
		if err := normalize(v); err != nil {
			return nil, fmt.Errorf("归一化第 %d 行失败: %w", i, err)
		}
	}

	log.Infof("[Indexer] 批量向量化完成, rows: %d, dim: %d", len(vectors), len(vectors[0]))
	return vectors, nil
}

// EncodeQuery 向量化单条查询文本并归一化。
func (ix *Indexer) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := ix.Encode(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// normalize 原地做 L2 归一化，使 ‖v‖₂ == 1。
func normalize(v []float32) error {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return fmt.Errorf("向量范数为零")
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return nil
}
