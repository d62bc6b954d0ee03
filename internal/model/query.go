package model

// SentinelNotInDB 是约定的"未找到答案"返回值。它是一个正常结果，不是错误。
const SentinelNotInDB = "Not in DB"

// Answer 的来源标签，标明答案由哪条路径产生。
const (
	ProvenanceHeaderExtraction = "header-extraction"
	ProvenanceLLM              = "llm"
	ProvenanceRuleExtraction   = "rule-extraction"
	ProvenanceNotInDB          = "not-in-db"
)

// Query 定义了一次表单字段查询的输入。
type Query struct {
	Text         string `json:"query"`
	FieldContext string `json:"fieldContext"`
	PartialInput string `json:"partialInput"`
}

// Answer 定义了返回给前端的查询结果结构。
type Answer struct {
	Text       string  `json:"answer"`
	Provenance string  `json:"source"`
	Confidence float64 `json:"confidence"`
}
