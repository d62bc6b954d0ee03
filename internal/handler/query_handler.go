package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"formfiller-go/internal/model"
	"formfiller-go/internal/service"
	"formfiller-go/pkg/log"
)

// QueryHandler 结构体定义了表单字段查询相关的处理器。
type QueryHandler struct {
	queryService service.QueryService
}

// NewQueryHandler 创建一个新的 QueryHandler 实例。
func NewQueryHandler(queryService service.QueryService) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
	}
}

// Query 是处理表单字段查询请求的 Gin 处理函数。
func (h *QueryHandler) Query(c *gin.Context) {
	var q model.Query
	if err := c.ShouldBindJSON(&q); err != nil {
		log.Warnf("[QueryHandler] 请求体解析失败: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体"})
		return
	}

	if q.Text == "" {
		log.Warnf("[QueryHandler] 查询请求失败: query 为空")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
		return
	}

	answer, err := h.queryService.Answer(c.Request.Context(), q)
	if err != nil {
		log.Errorf("[QueryHandler] 查询服务返回错误, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "查询失败",
			"answer": model.SentinelNotInDB,
		})
		return
	}

	log.Infof("[QueryHandler] 查询成功, query: '%s', source: %s", q.Text, answer.Provenance)
	c.JSON(http.StatusOK, answer)
}
