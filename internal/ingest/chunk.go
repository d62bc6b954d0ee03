package ingest

import (
	"errors"
	"strings"
)

// ErrInvalidChunkConfig 表示 overlap >= size，这是配置错误而不是可以静默容忍的输入。
var ErrInvalidChunkConfig = errors.New("分块重叠必须小于分块大小")

// Chunk 以固定大小和重叠对文本做滑动窗口切分。
// 每个窗口去除首尾空白，去除后为空的窗口被丢弃；
// 窗口起点每次前进 size-overlap，直到到达文本末尾。
func Chunk(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, errors.New("分块大小必须为正数")
	}
	if overlap < 0 || overlap >= size {
		return nil, ErrInvalidChunkConfig
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	var chunks []string
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}
