// Package pipeline 定义了向量索引重建的核心流程。
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"

	"formfiller-go/internal/config"
	"formfiller-go/internal/index"
	"formfiller-go/internal/ingest"
	"formfiller-go/internal/model"
	"formfiller-go/internal/vectorstore"
	"formfiller-go/pkg/database"
	"formfiller-go/pkg/log"
	"formfiller-go/pkg/storage"
	"formfiller-go/pkg/tasks"
)

// Redis 中记录最近一次重建状态的键。
const statusKey = "formfiller:index:status"

// Source 是一个待索引的源文件：文件名加原始字节。
type Source struct {
	Name string
	Data []byte
}

// Processor 封装了索引重建的所有依赖和逻辑。
// 同一时刻只允许一次重建：同步接口触发的重建与 Kafka 消费者触发的重建串行执行，
// 保证落盘快照与内存快照始终来自同一次重建。
type Processor struct {
	extractor *ingest.Extractor
	indexer   *index.Indexer
	store     *vectorstore.Store
	minioCfg  config.MinIOConfig
	ragCfg    config.RAGConfig
	rebuildMu sync.Mutex
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	extractor *ingest.Extractor,
	indexer *index.Indexer,
	store *vectorstore.Store,
	minioCfg config.MinIOConfig,
	ragCfg config.RAGConfig,
) *Processor {
	return &Processor{
		extractor: extractor,
		indexer:   indexer,
		store:     store,
		minioCfg:  minioCfg,
		ragCfg:    ragCfg,
	}
}

// Process 是 Kafka 消费者的入口：任何知识库变更任务都触发一次全量重建。
func (p *Processor) Process(ctx context.Context, task tasks.IndexRebuildTask) error {
	log.Infof("[Processor] 收到重建任务, reason: %s, file: %s", task.Reason, task.FileName)
	_, err := p.Rebuild(ctx)
	return err
}

// Rebuild 从 MinIO 拉取知识库全部文件并重建索引快照。
func (p *Processor) Rebuild(ctx context.Context) (*vectorstore.Snapshot, error) {
	log.Info("[Processor] 步骤1: 从 MinIO 列出知识库文件")
	sources, err := p.fetchSources(ctx)
	if err != nil {
		return nil, err
	}
	log.Infof("[Processor] 步骤1: 共获取 %d 个文件", len(sources))

	return p.RebuildFromSources(ctx, sources)
}

// RebuildFromSources 执行完整的重建管线：提取文本 → 分块 → 批量向量化 → 原子替换快照。
// 不支持的文件被跳过、批次继续；embedding 失败则整体失败，现有快照保持不变。
func (p *Processor) RebuildFromSources(ctx context.Context, sources []Source) (*vectorstore.Snapshot, error) {
	p.rebuildMu.Lock()
	defer p.rebuildMu.Unlock()

	chunks := make([]model.Chunk, 0)
	texts := make([]string, 0)

	log.Infof("[Processor] 步骤2: 提取文本并分块, chunkSize: %d, chunkOverlap: %d", p.ragCfg.ChunkSize, p.ragCfg.ChunkOverlap)
	for _, src := range sources {
		text, err := p.extractor.ExtractText(ctx, src.Name, src.Data)
		if err != nil {
			if errors.Is(err, ingest.ErrUnsupportedFormat) {
				log.Warnf("[Processor] 跳过不支持的文件: %s", src.Name)
			} else {
				log.Errorf("[Processor] 提取文本失败, 跳过文件: %s, err=%v", src.Name, err)
			}
			continue
		}

		pieces, err := ingest.Chunk(text, p.ragCfg.ChunkSize, p.ragCfg.ChunkOverlap)
		if err != nil {
			// 分块参数错误是配置问题，必须向上冒泡而不是静默跳过
			return nil, fmt.Errorf("分块失败: %w", err)
		}

		for i, piece := range pieces {
			chunks = append(chunks, model.Chunk{
				Content:     piece,
				Source:      src.Name,
				ChunkIndex:  i,
				TotalChunks: len(pieces),
			})
			texts = append(texts, piece)
		}
		log.Infof("[Processor] 文件 %s 生成 %d 个分块", src.Name, len(pieces))
	}

	// 语料为空时产出空快照，查询端返回哨兵答案
	if len(texts) == 0 {
		log.Warnf("[Processor] 知识库为空, 写入空快照")
		snap := &vectorstore.Snapshot{
			Chunks:     []model.Chunk{},
			Embeddings: [][]float32{},
			ModelID:    p.indexer.ModelID(),
			BuiltAt:    time.Now(),
		}
		if err := p.store.Replace(snap); err != nil {
			return nil, err
		}
		p.recordStatus(ctx, snap, len(sources))
		return snap, nil
	}

	log.Infof("[Processor] 步骤3: 批量向量化 %d 个分块", len(texts))
	embeddings, err := p.indexer.Encode(ctx, texts)
	if err != nil {
		// 原子失败：不产出部分快照，当前快照不受影响
		return nil, fmt.Errorf("批量向量化失败: %w", err)
	}

	snap := &vectorstore.Snapshot{
		Chunks:     chunks,
		Embeddings: embeddings,
		ModelID:    p.indexer.ModelID(),
		BuiltAt:    time.Now(),
	}

	log.Info("[Processor] 步骤4: 持久化并切换快照")
	if err := p.store.Replace(snap); err != nil {
		return nil, fmt.Errorf("保存快照失败: %w", err)
	}

	p.recordStatus(ctx, snap, len(sources))
	log.Infof("[Processor] 重建完成, chunks: %d", len(chunks))
	return snap, nil
}

// fetchSources 遍历知识库前缀下的所有对象并下载内容。
func (p *Processor) fetchSources(ctx context.Context) ([]Source, error) {
	var sources []Source
	objects := storage.MinioClient.ListObjects(ctx, p.minioCfg.BucketName, minio.ListObjectsOptions{
		Prefix:    storage.KnowledgePrefix,
		Recursive: true,
	})

	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("列出 MinIO 对象失败: %w", obj.Err)
		}

		reader, err := storage.MinioClient.GetObject(ctx, p.minioCfg.BucketName, obj.Key, minio.GetObjectOptions{})
		if err != nil {
			return nil, fmt.Errorf("下载 MinIO 对象 %s 失败: %w", obj.Key, err)
		}

		buf := new(bytes.Buffer)
		_, err = buf.ReadFrom(reader)
		reader.Close()
		if err != nil {
			return nil, fmt.Errorf("读取 MinIO 对象流失败: %w", err)
		}

		name := obj.Key[len(storage.KnowledgePrefix):]
		sources = append(sources, Source{Name: name, Data: buf.Bytes()})
	}
	return sources, nil
}

// recordStatus 把最近一次重建的概要写入 Redis，供状态接口查询。
func (p *Processor) recordStatus(ctx context.Context, snap *vectorstore.Snapshot, fileCount int) {
	if database.RDB == nil {
		return
	}
	err := database.RDB.HSet(ctx, statusKey,
		"built_at", snap.BuiltAt.Format(time.RFC3339),
		"chunks", snap.Len(),
		"files", fileCount,
		"model", snap.ModelID,
	).Err()
	if err != nil {
		log.Warnf("[Processor] 写入重建状态失败: %v", err)
	}
}

// Status 读取 Redis 中的最近重建状态。
func Status(ctx context.Context) (map[string]string, error) {
	if database.RDB == nil {
		return map[string]string{}, nil
	}
	return database.RDB.HGetAll(ctx, statusKey).Result()
}
