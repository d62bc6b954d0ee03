// Package synthesizer 负责答案合成：LLM 优先，失败时回退到规则抽取。
package synthesizer

import (
	"context"
	"fmt"
	"strings"

	"formfiller-go/internal/extractor"
	"formfiller-go/internal/model"
	"formfiller-go/pkg/llm"
	"formfiller-go/pkg/log"
)

// Result 是合成结果的带标签返回值：答案文本加产生它的分支。
// 回退不通过异常驱动，而是显式走抽取路径。
type Result struct {
	Text    string
	UsedLLM bool
}

// Synthesizer 封装 LLM 客户端与规则抽取器。
type Synthesizer struct {
	llmClient llm.Client
	extractor *extractor.Extractor
}

// New 创建一个新的 Synthesizer 实例。
func New(llmClient llm.Client, ex *extractor.Extractor) *Synthesizer {
	return &Synthesizer{llmClient: llmClient, extractor: ex}
}

// Synthesize 先探测 LLM 可用性（每次调用都重新探测），可用则构建提示词调用模型，
// 任何调用错误都无条件转入规则抽取；单次查询内不做重试。
// LLM 输出原样去除首尾空白返回，包括模型自己输出的 "Not in DB"。
func (s *Synthesizer) Synthesize(ctx context.Context, q model.Query, contextText string) Result {
	if s.llmClient != nil && s.llmClient.Available(ctx) {
		prompt := buildPrompt(q, contextText)
		answer, err := s.llmClient.Generate(ctx, prompt)
		if err == nil {
			return Result{Text: strings.TrimSpace(answer), UsedLLM: true}
		}
		log.Warnf("[Synthesizer] LLM 生成失败, 转入规则抽取: %v", err)
	}

	text := s.extractor.Extract(extractor.Request{
		Query:        q.Text,
		FieldContext: q.FieldContext,
		PartialInput: q.PartialInput,
		Context:      contextText,
	})
	return Result{Text: text, UsedLLM: false}
}

// buildPrompt 构建固定模板的表单填写提示词。
func buildPrompt(q model.Query, contextText string) string {
	fieldContext := q.FieldContext
	if fieldContext == "" {
		fieldContext = "General field"
	}

	hintText := ""
	if q.PartialInput != "" {
		hintText = fmt.Sprintf("\nUser's Partial Input (as hint): %s\nNote: The user typed '%s' - use this to correct or complete the answer if relevant (e.g., if they typed 'medi' and email contains 'medi', prioritize that email).", q.PartialInput, q.PartialInput)
	}

	multipleHint := ""
	fieldLower := strings.ToLower(q.FieldContext)
	for _, w := range []string{"examples", "links", "websites", "multiple", "list"} {
		if strings.Contains(fieldLower, w) {
			multipleHint = "\n- If the field asks for multiple items (e.g., \"Examples:\", \"Links:\"), provide ALL relevant items separated by commas"
			break
		}
	}

	return fmt.Sprintf(`You are a form-filling assistant. Based on the provided context, answer the question concisely.

Context:
%s

Field Context: %s
Question: %s%s

Instructions:
- Provide ONLY the answer for the form field
- Keep it brief (1-3 words for short fields, 1-2 sentences for text areas)%s
- If the user provided partial input, use it as a hint to correct or complete the answer
- If information is not in context, respond with exactly "Not in DB"
- No explanations or extra text

Answer:`, contextText, fieldContext, q.Text, hintText, multipleHint)
}
