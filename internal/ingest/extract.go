// Package ingest 负责把知识库源文件变成可索引的文本切片。
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"formfiller-go/pkg/log"
)

// ErrUnsupportedFormat 表示文件扩展名不在支持范围内。
// 重建流程遇到该错误时跳过此文件，继续处理批次中的其他文件。
var ErrUnsupportedFormat = errors.New("不支持的文件格式")

// TextProvider 从二进制文档中抽取纯文本，通常由 Tika 服务器实现。
type TextProvider interface {
	ExtractText(ctx context.Context, fileReader io.Reader, fileName string) (string, error)
}

// Extractor 按文件类型分发文本提取：纯文本直接读取，
// 结构化文档（docx）与分页文档（pdf）交给 TextProvider。
type Extractor struct {
	provider TextProvider
}

// NewExtractor 创建一个新的 Extractor 实例。
func NewExtractor(provider TextProvider) *Extractor {
	return &Extractor{provider: provider}
}

// ExtractText 根据扩展名提取文件的纯文本内容。
func (e *Extractor) ExtractText(ctx context.Context, fileName string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".txt":
		return string(data), nil
	case ".pdf", ".docx":
		text, err := e.provider.ExtractText(ctx, bytes.NewReader(data), fileName)
		if err != nil {
			log.Errorf("[Ingest] 提取文本失败, FileName: %s, Error: %v", fileName, err)
			return "", fmt.Errorf("提取 %s 文本失败: %w", fileName, err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// SupportedExtensions 返回知识库接受的文件扩展名。
func SupportedExtensions() []string {
	return []string{".txt", ".pdf", ".docx"}
}

// IsSupported 判断文件名的扩展名是否受支持。
func IsSupported(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, s := range SupportedExtensions() {
		if ext == s {
			return true
		}
	}
	return false
}
