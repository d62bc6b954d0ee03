package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"formfiller-go/internal/pipeline"
	"formfiller-go/internal/vectorstore"
	"formfiller-go/pkg/log"
)

// chunkPreviewLimit 调试接口返回的分块数量上限。
const chunkPreviewLimit = 5

// contentPreviewRunes 调试接口中每个分块内容的截断长度。
const contentPreviewRunes = 200

// IndexHandler 结构体定义了向量索引管理相关的处理器。
type IndexHandler struct {
	processor *pipeline.Processor
	store     *vectorstore.Store
}

// NewIndexHandler 创建一个新的 IndexHandler 实例。
func NewIndexHandler(processor *pipeline.Processor, store *vectorstore.Store) *IndexHandler {
	return &IndexHandler{
		processor: processor,
		store:     store,
	}
}

// Rebuild 同步重建向量索引。
func (h *IndexHandler) Rebuild(c *gin.Context) {
	snap, err := h.processor.Rebuild(c.Request.Context())
	if err != nil {
		log.Errorf("[IndexHandler] 重建索引失败, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "重建索引失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"chunks":  snap.Len(),
		"model":   snap.ModelID,
	})
}

// Status 返回最近一次索引构建的状态信息，并附带当前内存快照的概况。
func (h *IndexHandler) Status(c *gin.Context) {
	status, err := pipeline.Status(c.Request.Context())
	if err != nil {
		log.Errorf("[IndexHandler] 获取索引状态失败, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取索引状态失败"})
		return
	}

	snap := h.store.Current()
	c.JSON(http.StatusOK, gin.H{
		"last_build":     status,
		"loaded":         snap != nil,
		"current_chunks": snap.Len(),
	})
}

// chunkPreview 调试接口返回的单个分块预览。
type chunkPreview struct {
	Source     string `json:"source"`
	ChunkIndex int    `json:"chunkIndex"`
	Content    string `json:"content"`
}

// DebugChunks 返回当前索引前若干分块的预览，便于排查检索质量问题。
func (h *IndexHandler) DebugChunks(c *gin.Context) {
	snap := h.store.Current()
	if snap == nil {
		c.JSON(http.StatusOK, gin.H{"total": 0, "chunks": []chunkPreview{}})
		return
	}

	previews := make([]chunkPreview, 0, chunkPreviewLimit)
	for i, ch := range snap.Chunks {
		if i >= chunkPreviewLimit {
			break
		}
		previews = append(previews, chunkPreview{
			Source:     ch.Source,
			ChunkIndex: ch.ChunkIndex,
			Content:    truncateRunes(ch.Content, contentPreviewRunes),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  snap.Len(),
		"model":  snap.ModelID,
		"chunks": previews,
	})
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
