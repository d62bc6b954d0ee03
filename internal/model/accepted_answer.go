package model

// AcceptedAnswer 表示一条用户确认过的表单答案，追加写入答案日志。
type AcceptedAnswer struct {
	FieldContext string `json:"fieldContext"`
	Answer       string `json:"answer"`
	PartialInput string `json:"partialInput"`
	Timestamp    string `json:"timestamp"`
}
