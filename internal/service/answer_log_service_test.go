package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formfiller-go/internal/model"
)

func TestSaveAcceptedWritesBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AcceptedAnswers.txt")
	svc := NewAnswerLogService(path)

	saved, err := svc.SaveAccepted(model.AcceptedAnswer{
		FieldContext: "Email",
		Answer:       "jane@example.com",
		PartialInput: "jan",
		Timestamp:    "2026-08-29T10:00:00Z",
	})
	require.NoError(t, err)
	assert.True(t, saved)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, strings.Repeat("=", 60))
	assert.Contains(t, content, "Field: Email\n")
	assert.Contains(t, content, "User Typed (Hint): jan\n")
	assert.Contains(t, content, "Answer: jane@example.com\n")
	assert.Contains(t, content, "Date: 2026-08-29T10:00:00Z\n")
}

func TestSaveAcceptedOmitsEmptyHint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AcceptedAnswers.txt")
	svc := NewAnswerLogService(path)

	saved, err := svc.SaveAccepted(model.AcceptedAnswer{FieldContext: "City", Answer: "Berlin"})
	require.NoError(t, err)
	assert.True(t, saved)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "User Typed (Hint):")
	// 未提供时间戳时填入当前时间
	assert.Contains(t, string(data), "Date: ")
}

func TestSaveAcceptedDeduplicatesExactPair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AcceptedAnswers.txt")
	svc := NewAnswerLogService(path)

	saved, err := svc.SaveAccepted(model.AcceptedAnswer{FieldContext: "Email", Answer: "jane@example.com"})
	require.NoError(t, err)
	assert.True(t, saved)

	// 完全相同的组合被跳过，且幂等
	saved, err = svc.SaveAccepted(model.AcceptedAnswer{FieldContext: "Email", Answer: "jane@example.com"})
	require.NoError(t, err)
	assert.False(t, saved)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "Answer: jane@example.com"))
}

func TestSaveAcceptedDifferentAnswerSameField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AcceptedAnswers.txt")
	svc := NewAnswerLogService(path)

	saved, err := svc.SaveAccepted(model.AcceptedAnswer{FieldContext: "Email", Answer: "jane@example.com"})
	require.NoError(t, err)
	assert.True(t, saved)

	// 同字段不同答案不算重复
	saved, err = svc.SaveAccepted(model.AcceptedAnswer{FieldContext: "Email", Answer: "john@example.com"})
	require.NoError(t, err)
	assert.True(t, saved)
}

func TestSaveAcceptedRejectsEmptyAnswer(t *testing.T) {
	svc := NewAnswerLogService(filepath.Join(t.TempDir(), "AcceptedAnswers.txt"))

	_, err := svc.SaveAccepted(model.AcceptedAnswer{FieldContext: "Email"})
	assert.Error(t, err)
}
