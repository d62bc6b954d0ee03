package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"formfiller-go/internal/config"
	"formfiller-go/internal/service"
	"formfiller-go/internal/vectorstore"
	"formfiller-go/pkg/llm"
	"formfiller-go/pkg/log"
)

// HealthHandler 结构体定义了健康检查相关的处理器。
type HealthHandler struct {
	store           *vectorstore.Store
	documentService service.DocumentService
	llmClient       llm.Client
}

// NewHealthHandler 创建一个新的 HealthHandler 实例。
func NewHealthHandler(store *vectorstore.Store, documentService service.DocumentService, llmClient llm.Client) *HealthHandler {
	return &HealthHandler{
		store:           store,
		documentService: documentService,
		llmClient:       llmClient,
	}
}

// Health 返回服务整体状态。
func (h *HealthHandler) Health(c *gin.Context) {
	snap := h.store.Current()

	documentsCount := 0
	files, err := h.documentService.List(c.Request.Context())
	if err != nil {
		log.Warnf("[HealthHandler] 获取文件数量失败: %v", err)
	} else {
		documentsCount = len(files)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":                 "ok",
		"vector_db_initialized":  snap != nil && snap.Len() > 0,
		"documents_count":        documentsCount,
		"chunks_count":           snap.Len(),
	})
}

// CheckLLM 实时探测本地大模型是否可用。
func (h *HealthHandler) CheckLLM(c *gin.Context) {
	available := h.llmClient != nil && h.llmClient.Available(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"available": available,
		"model":     config.Conf.LLM.Model,
	})
}
