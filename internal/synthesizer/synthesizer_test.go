package synthesizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formfiller-go/internal/extractor"
	"formfiller-go/internal/model"
)

type fakeLLM struct {
	available bool
	answer    string
	err       error
	prompts   []string
	probes    int
}

func (f *fakeLLM) Available(ctx context.Context) bool {
	f.probes++
	return f.available
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

func (f *fakeLLM) EnsureModel(ctx context.Context) error { return nil }

func TestSynthesizeUsesLLMWhenAvailable(t *testing.T) {
	llm := &fakeLLM{available: true, answer: "  Jane Doe \n"}
	s := New(llm, extractor.New())

	res := s.Synthesize(context.Background(), model.Query{Text: "full name"}, "Jane Doe\nEngineer")
	assert.True(t, res.UsedLLM)
	assert.Equal(t, "Jane Doe", res.Text)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Jane Doe\nEngineer")
	assert.Contains(t, llm.prompts[0], "Question: full name")
}

func TestSynthesizeLLMSentinelPassedThrough(t *testing.T) {
	llm := &fakeLLM{available: true, answer: "Not in DB"}
	s := New(llm, extractor.New())

	res := s.Synthesize(context.Background(), model.Query{Text: "salary"}, "no such info")
	assert.True(t, res.UsedLLM)
	// 模型自己给出的哨兵值原样返回，不再二次抽取
	assert.Equal(t, model.SentinelNotInDB, res.Text)
}

func TestSynthesizeFallsBackWhenUnavailable(t *testing.T) {
	llm := &fakeLLM{available: false}
	s := New(llm, extractor.New())

	res := s.Synthesize(context.Background(), model.Query{Text: "email"}, "Reach me at jane@example.com")
	assert.False(t, res.UsedLLM)
	assert.Equal(t, "jane@example.com", res.Text)
	assert.Empty(t, llm.prompts)
}

func TestSynthesizeFallsBackOnGenerateError(t *testing.T) {
	llm := &fakeLLM{available: true, err: errors.New("timeout")}
	s := New(llm, extractor.New())

	res := s.Synthesize(context.Background(), model.Query{Text: "email"}, "Reach me at jane@example.com")
	assert.False(t, res.UsedLLM)
	assert.Equal(t, "jane@example.com", res.Text)
	// 失败后单次查询内不重试
	require.Len(t, llm.prompts, 1)
}

func TestSynthesizeNilClientFallsBack(t *testing.T) {
	s := New(nil, extractor.New())

	res := s.Synthesize(context.Background(), model.Query{Text: "email"}, "Reach me at jane@example.com")
	assert.False(t, res.UsedLLM)
	assert.Equal(t, "jane@example.com", res.Text)
}

func TestSynthesizeProbesAvailabilityEveryCall(t *testing.T) {
	llm := &fakeLLM{available: true, answer: "ok"}
	s := New(llm, extractor.New())

	for i := 0; i < 3; i++ {
		s.Synthesize(context.Background(), model.Query{Text: "q"}, "ctx")
	}
	assert.Equal(t, 3, llm.probes)
}

func TestBuildPromptDefaults(t *testing.T) {
	prompt := buildPrompt(model.Query{Text: "what city"}, "lives in Berlin")
	assert.Contains(t, prompt, "Field Context: General field")
	assert.NotContains(t, prompt, "Partial Input")
	assert.NotContains(t, prompt, "multiple items")
}

func TestBuildPromptWithHintAndMultiItems(t *testing.T) {
	q := model.Query{
		Text:         "links",
		FieldContext: "Examples of work",
		PartialInput: "medi",
	}
	prompt := buildPrompt(q, "ctx")
	assert.Contains(t, prompt, "User's Partial Input (as hint): medi")
	assert.True(t, strings.Contains(prompt, "provide ALL relevant items separated by commas"))
	assert.Contains(t, prompt, "Field Context: Examples of work")
}
