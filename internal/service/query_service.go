// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"strings"

	"formfiller-go/internal/index"
	"formfiller-go/internal/model"
	"formfiller-go/internal/retriever"
	"formfiller-go/internal/synthesizer"
	"formfiller-go/internal/vectorstore"
	"formfiller-go/pkg/log"
)

// 个人信息类查询直接使用文档头部切片，跳过语义检索。
var personalInfoKeywords = []string{"name", "email", "phone", "mobile", "contact", "address"}

// 个人信息捷径使用的头部切片数量（简历抬头通常落在前几块）。
const headerChunkCount = 3

// QueryService 接口定义了表单字段查询操作。
type QueryService interface {
	Answer(ctx context.Context, q model.Query) (*model.Answer, error)
}

type queryService struct {
	store   *vectorstore.Store
	indexer *index.Indexer
	synth   *synthesizer.Synthesizer
	topK    int
}

// NewQueryService 创建一个新的 QueryService 实例。
func NewQueryService(store *vectorstore.Store, indexer *index.Indexer, synth *synthesizer.Synthesizer, topK int) QueryService {
	if topK <= 0 {
		topK = 3
	}
	return &queryService{
		store:   store,
		indexer: indexer,
		synth:   synth,
		topK:    topK,
	}
}

// Answer 执行完整的查询管线：个人信息捷径 → 语义检索 → 答案合成。
// 所有步骤都是对当前快照的纯变换；"未找到答案"不是错误，而是哨兵值。
func (s *queryService) Answer(ctx context.Context, q model.Query) (*model.Answer, error) {
	log.Infof("[QueryService] 收到查询, query: '%s', field: '%s'", q.Text, q.FieldContext)
	snap := s.store.Current()

	// 1. 个人信息捷径：文档头部即简历抬头，直接作为上下文
	combined := strings.ToLower(q.Text + " " + q.FieldContext)
	if containsAny(combined, personalInfoKeywords) && snap.Len() > 0 {
		n := headerChunkCount
		if n > snap.Len() {
			n = snap.Len()
		}
		contextText := joinChunks(snap.Chunks[:n])
		res := s.synth.Synthesize(ctx, q, contextText)
		log.Infof("[QueryService] 个人信息捷径命中, answer: %s", res.Text)
		return &model.Answer{
			Text:       res.Text,
			Provenance: model.ProvenanceHeaderExtraction,
			Confidence: 1.0,
		}, nil
	}

	// 2. 无快照或空语料：返回哨兵答案而不是错误
	if snap.Len() == 0 {
		log.Warnf("[QueryService] 向量库为空, 返回哨兵答案")
		return &model.Answer{
			Text:       model.SentinelNotInDB,
			Provenance: model.ProvenanceNotInDB,
			Confidence: 0,
		}, nil
	}

	// 3. 用字段上下文增强查询后向量化
	enhanced := q.Text
	if q.FieldContext != "" {
		enhanced = fmt.Sprintf("%s: %s", q.FieldContext, q.Text)
	}
	queryVector, err := s.indexer.EncodeQuery(ctx, enhanced)
	if err != nil {
		return nil, fmt.Errorf("向量化查询失败: %w", err)
	}

	// 快照可能由另一个 embedding 模型构建，维度不同的得分没有意义
	if dim := len(snap.Embeddings[0]); len(queryVector) != dim {
		log.Warnf("[QueryService] 向量维度不匹配 (快照 %d / 查询 %d), 需要重建索引, 返回哨兵答案", dim, len(queryVector))
		return &model.Answer{
			Text:       model.SentinelNotInDB,
			Provenance: model.ProvenanceNotInDB,
			Confidence: 0,
		}, nil
	}

	// 4. top-K 检索并拼接上下文
	hits, err := retriever.Search(snap.Embeddings, queryVector, s.topK)
	if err != nil {
		return nil, fmt.Errorf("检索失败: %w", err)
	}
	if len(hits) == 0 {
		return &model.Answer{
			Text:       model.SentinelNotInDB,
			Provenance: model.ProvenanceNotInDB,
			Confidence: 0,
		}, nil
	}

	picked := make([]model.Chunk, len(hits))
	for i, h := range hits {
		picked[i] = snap.Chunks[h.Index]
	}
	contextText := joinChunks(picked)
	log.Infof("[QueryService] 检索完成, hits: %d, topScore: %.3f", len(hits), hits[0].Score)

	// 5. 合成答案，来源标签取决于实际产生答案的分支
	res := s.synth.Synthesize(ctx, q, contextText)
	provenance := model.ProvenanceRuleExtraction
	if res.UsedLLM {
		provenance = model.ProvenanceLLM
	}

	log.Infof("[QueryService] 查询完成, answer: '%s', source: %s", res.Text, provenance)
	return &model.Answer{
		Text:       res.Text,
		Provenance: provenance,
		Confidence: float64(hits[0].Score),
	}, nil
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// joinChunks 以空行分隔拼接切片内容，作为合成上下文。
func joinChunks(chunks []model.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return strings.Join(parts, "\n\n")
}
