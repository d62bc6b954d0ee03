package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"formfiller-go/internal/model"
	"formfiller-go/internal/service"
	"formfiller-go/pkg/log"
)

// AnswerHandler 结构体定义了已确认答案记录相关的处理器。
type AnswerHandler struct {
	answerLogService service.AnswerLogService
}

// NewAnswerHandler 创建一个新的 AnswerHandler 实例。
func NewAnswerHandler(answerLogService service.AnswerLogService) *AnswerHandler {
	return &AnswerHandler{
		answerLogService: answerLogService,
	}
}

// SaveAccepted 记录用户确认过的答案，含用户输入提示。
func (h *AnswerHandler) SaveAccepted(c *gin.Context) {
	var req model.AcceptedAnswer
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误"})
		return
	}
	if req.FieldContext == "" || req.Answer == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "字段和答案不能为空"})
		return
	}

	saved, err := h.answerLogService.SaveAccepted(req)
	if err != nil {
		log.Errorf("[AnswerHandler] 保存答案失败, field: %s, error: %v", req.FieldContext, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存答案失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "saved": saved})
}

// SaveFieldValue 记录表单字段的最终取值，不携带用户输入提示。
func (h *AnswerHandler) SaveFieldValue(c *gin.Context) {
	var req model.AcceptedAnswer
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误"})
		return
	}
	if req.FieldContext == "" || req.Answer == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "字段和答案不能为空"})
		return
	}
	req.PartialInput = ""

	saved, err := h.answerLogService.SaveAccepted(req)
	if err != nil {
		log.Errorf("[AnswerHandler] 保存字段值失败, field: %s, error: %v", req.FieldContext, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存字段值失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "saved": saved})
}
