package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"formfiller-go/internal/model"
	"formfiller-go/pkg/log"
)

// 答案日志中分隔记录的等号横线。
var answerLogRule = strings.Repeat("=", 60)

// AnswerLogService 接口定义了已确认答案的追加式持久化。
// 日志只追加、从不删除；相同 (Field, Answer) 组合只保留一条。
type AnswerLogService interface {
	// SaveAccepted 追加一条记录。返回 false 表示该组合已存在，本次被跳过。
	SaveAccepted(record model.AcceptedAnswer) (bool, error)
}

type answerLogService struct {
	path string
	mu   sync.Mutex
}

// NewAnswerLogService 创建一个以 path 为日志文件路径的 AnswerLogService。
func NewAnswerLogService(path string) AnswerLogService {
	return &answerLogService{path: path}
}

// SaveAccepted 以精确的 (Field, Answer) 相等判断去重后追加记录块。
func (s *answerLogService) SaveAccepted(record model.AcceptedAnswer) (bool, error) {
	if record.Answer == "" {
		return false, fmt.Errorf("答案内容为空")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.hasEntry(record.FieldContext, record.Answer)
	if err != nil {
		return false, err
	}
	if exists {
		log.Infof("[AnswerLog] 跳过重复记录: %s = %s", record.FieldContext, record.Answer)
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), os.ModePerm); err != nil {
		return false, fmt.Errorf("创建答案日志目录失败: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("打开答案日志失败: %w", err)
	}
	defer f.Close()

	timestamp := record.Timestamp
	if timestamp == "" {
		timestamp = time.Now().Format(time.RFC3339)
	}

	var b strings.Builder
	b.WriteString("\n" + answerLogRule + "\n")
	b.WriteString("Field: " + record.FieldContext + "\n")
	if record.PartialInput != "" {
		b.WriteString("User Typed (Hint): " + record.PartialInput + "\n")
	}
	b.WriteString("Answer: " + record.Answer + "\n")
	b.WriteString("Date: " + timestamp + "\n")
	b.WriteString(answerLogRule + "\n")

	if _, err := f.WriteString(b.String()); err != nil {
		return false, fmt.Errorf("写入答案日志失败: %w", err)
	}

	log.Infof("[AnswerLog] 已保存确认答案: %s = %s", record.FieldContext, record.Answer)
	return true, nil
}

// hasEntry 逐块解析日志，检查是否已存在完全相同的 Field + Answer 组合。
func (s *answerLogService) hasEntry(field, answer string) (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("读取答案日志失败: %w", err)
	}

	for _, block := range strings.Split(string(data), answerLogRule) {
		var blockField, blockAnswer string
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if v, ok := strings.CutPrefix(line, "Field: "); ok {
				blockField = v
			} else if v, ok := strings.CutPrefix(line, "Answer: "); ok {
				blockAnswer = v
			}
		}
		if blockField == field && blockAnswer == answer && blockAnswer != "" {
			return true, nil
		}
	}
	return false, nil
}
