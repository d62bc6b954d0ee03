package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"formfiller-go/internal/model"
)

const sampleResume = `John A. Smith
Software Engineer

Contact: jane.doe@example.com or john.smith@work.io
Phone: +1 (555) 123-4567

Projects: https://github.com/jsmith/demo and https://linkedin.com/in/jsmith
Other: https://news.example.org/article

I have five years of experience building backend services. My hobbies include chess.`

func TestExtractEmail(t *testing.T) {
	e := New()

	answer := e.Extract(Request{
		Query:        "What is your email?",
		FieldContext: "Email Address",
		Context:      sampleResume,
	})
	assert.Equal(t, "jane.doe@example.com", answer)
}

func TestExtractEmailPrefersPartialInput(t *testing.T) {
	e := New()

	answer := e.Extract(Request{
		Query:        "email",
		PartialInput: "John",
		Context:      sampleResume,
	})
	// 提示匹配不区分大小写
	assert.Equal(t, "john.smith@work.io", answer)
}

func TestExtractNameFromFirstLine(t *testing.T) {
	e := New()

	answer := e.Extract(Request{
		Query:   "What is your full name?",
		Context: sampleResume,
	})
	assert.Equal(t, "John A. Smith", answer)
}

func TestExtractNameFromLabel(t *testing.T) {
	e := New()

	answer := e.Extract(Request{
		Query:   "who are you",
		Context: "resume of a developer\nName: Jane Doe\nmore text",
	})
	assert.Equal(t, "Jane Doe", answer)
}

func TestExtractPhone(t *testing.T) {
	e := New()

	answer := e.Extract(Request{
		Query:   "phone number",
		Context: sampleResume,
	})
	assert.Equal(t, "+1 (555) 123-4567", answer)
}

func TestExtractURLMultiItemField(t *testing.T) {
	e := New()

	answer := e.Extract(Request{
		Query:        "Links",
		FieldContext: "Examples of your work",
		Context:      sampleResume,
	})
	// 多条目字段只保留职业主页，无关链接被过滤
	assert.Equal(t, "https://github.com/jsmith/demo, https://linkedin.com/in/jsmith", answer)
}

func TestExtractURLSpecificPlatform(t *testing.T) {
	e := New()

	answer := e.Extract(Request{
		Query:   "github profile link",
		Context: sampleResume,
	})
	assert.Equal(t, "https://github.com/jsmith/demo", answer)
}

func TestExtractGenericSentence(t *testing.T) {
	e := New()

	answer := e.Extract(Request{
		Query:   "experience backend",
		Context: "I enjoy hiking. I have five years of experience building backend services. My hobbies include chess.",
	})
	assert.Equal(t, "I have five years of experience building backend services", answer)
}

func TestExtractNotInDB(t *testing.T) {
	e := New()

	answer := e.Extract(Request{
		Query:   "favorite quantum equation",
		Context: sampleResume,
	})
	assert.Equal(t, model.SentinelNotInDB, answer)
}

func TestRuleMissFallsBackToGeneric(t *testing.T) {
	e := New()

	// 分类为 email 但上下文没有邮箱，落回通用句子抽取
	answer := e.Extract(Request{
		Query:   "email habits",
		Context: "I check my email habits every morning. Nothing else here.",
	})
	assert.Equal(t, "I check my email habits every morning", answer)
}

func TestExtractEmptyContext(t *testing.T) {
	e := New()

	answer := e.Extract(Request{Query: "email", Context: ""})
	assert.Equal(t, model.SentinelNotInDB, answer)
}
