package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"formfiller-go/internal/ingest"
	"formfiller-go/internal/service"
	"formfiller-go/pkg/log"
)

// DocumentHandler 结构体定义了知识库文件管理相关的处理器。
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
	}
}

// Upload 接收 multipart 文件并存入知识库。
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		log.Warnf("[DocumentHandler] 上传请求缺少文件: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少文件"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取上传文件失败"})
		return
	}
	defer f.Close()

	doc, err := h.documentService.Upload(c.Request.Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), f)
	if err != nil {
		if errors.Is(err, ingest.ErrUnsupportedFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "不支持的文件格式", "supported": ingest.SupportedExtensions()})
			return
		}
		log.Errorf("[DocumentHandler] 上传失败, file: %s, error: %v", fileHeader.Filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "上传失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "file": doc})
}

// List 返回知识库中的文件列表。
func (h *DocumentHandler) List(c *gin.Context) {
	files, err := h.documentService.List(c.Request.Context())
	if err != nil {
		log.Errorf("[DocumentHandler] 获取文件列表失败, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取文件列表失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}

// Delete 删除知识库中的一个文件。
func (h *DocumentHandler) Delete(c *gin.Context) {
	fileName := c.Param("filename")
	if fileName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少文件名"})
		return
	}

	err := h.documentService.Delete(c.Request.Context(), fileName)
	if err != nil {
		if errors.Is(err, service.ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "文件不存在"})
			return
		}
		log.Errorf("[DocumentHandler] 删除失败, file: %s, error: %v", fileName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "文件删除成功"})
}
