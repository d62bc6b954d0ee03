// Package extractor 实现基于规则的答案抽取，作为 LLM 不可用时的回退路径。
package extractor

import (
	"regexp"
	"strings"

	"formfiller-go/internal/model"
	"formfiller-go/pkg/log"
)

// Request 是一次抽取请求：查询、字段上下文、用户已输入的提示以及检索到的上下文文本。
type Request struct {
	Query        string
	FieldContext string
	PartialInput string
	Context      string
}

// rule 把一类字段的识别与抽取绑定在一起，按固定优先级求值。
type rule struct {
	name     string
	keywords []string
	extract  func(req Request) (string, bool)
}

// Extractor 持有按优先级排列的规则表：name → email → phone → url → generic。
type Extractor struct {
	rules []rule
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`[+]?\d[\d\s()-]{8,}`)
	urlRe   = regexp.MustCompile(`https?://[^\s,)]+`)

	// 两到三个首字母大写的词（允许 "A." 这样的中间名缩写）占满一行
	nameLineRe = regexp.MustCompile(`^[A-Z][a-z]*\.?(?:\s+[A-Z][a-z]*\.?){1,2}$`)
	// "Name: John Doe" 形式的标注值
	nameLabelRe = regexp.MustCompile(`(?:Name|NAME|name)[:\s]+([A-Z][a-z]+\s+[A-Z][a-z]+)`)
	// 独占一行的两词姓名
	nameOwnLineRe = regexp.MustCompile(`\n([A-Z][a-z]+\s+[A-Z][a-z]+)\n`)
)

// 视为"需要多个条目"的字段关键词
var multiItemKeywords = []string{"example", "examples", "links", "websites"}

// 已知的职业主页域名：代码托管、职业社交、作品集托管平台
var professionalSites = []string{"github.com", "linkedin.com", "portfolio", "render.com", "vercel.app"}

// New 创建规则表固定的 Extractor。
func New() *Extractor {
	e := &Extractor{}
	e.rules = []rule{
		{name: "name", keywords: []string{"name", "called", "who"}, extract: extractName},
		{name: "email", keywords: []string{"email", "mail"}, extract: extractEmail},
		{name: "phone", keywords: []string{"phone", "mobile", "contact", "number"}, extract: extractPhone},
		{name: "url", keywords: []string{"website", "link", "github", "linkedin", "portfolio", "url"}, extract: extractURL},
	}
	return e
}

// Extract 对请求分类后执行对应规则；规则未命中时回退到通用句子抽取，
// 仍无结果则返回哨兵值 "Not in DB"。
func (e *Extractor) Extract(req Request) string {
	combined := strings.ToLower(req.Query + " " + req.FieldContext)

	for _, r := range e.rules {
		if !containsAny(combined, r.keywords) {
			continue
		}
		if answer, ok := r.extract(req); ok {
			log.Infof("[Extractor] 规则 %s 命中: %s", r.name, answer)
			return answer
		}
		// 分类命中但未抽到值，落回通用规则
		break
	}

	if answer, ok := extractGeneric(req); ok {
		return answer
	}
	return model.SentinelNotInDB
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// extractName 优先把上下文首行当作文档头（简历抬头即姓名），
// 失败时在前 300 个字符里找 Name: 标注或独占一行的姓名。
func extractName(req Request) (string, bool) {
	var firstLine string
	for _, line := range regexp.MustCompile(`[\n\r]+`).Split(req.Context, -1) {
		if s := strings.TrimSpace(line); s != "" {
			firstLine = s
			break
		}
	}
	if nameLineRe.MatchString(firstLine) {
		return firstLine, true
	}

	head := req.Context
	if runes := []rune(head); len(runes) > 300 {
		head = string(runes[:300])
	}
	if m := nameLabelRe.FindStringSubmatch(head); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := nameOwnLineRe.FindStringSubmatch(head); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

// extractEmail 找出所有邮箱；有部分输入提示时优先返回包含提示的那一个。
func extractEmail(req Request) (string, bool) {
	matches := emailRe.FindAllString(req.Context, -1)
	if len(matches) == 0 {
		return "", false
	}
	if req.PartialInput != "" {
		hint := strings.ToLower(req.PartialInput)
		for _, m := range matches {
			if strings.Contains(strings.ToLower(m), hint) {
				return m, true
			}
		}
	}
	return matches[0], true
}

// extractPhone 匹配可选 + 开头、后接至少 9 个电话字符的片段。
func extractPhone(req Request) (string, bool) {
	if m := phoneRe.FindString(req.Context); m != "" {
		return strings.TrimSpace(m), true
	}
	return "", false
}

// extractURL 抽取 http(s) 链接。字段要求多个条目时过滤到已知职业主页域名
// 并以逗号拼接最多 3 条；指明具体平台时按平台筛选；否则返回第一条。
func extractURL(req Request) (string, bool) {
	urls := urlRe.FindAllString(req.Context, -1)
	if len(urls) == 0 {
		return "", false
	}

	fieldLower := strings.ToLower(req.FieldContext)
	combined := strings.ToLower(req.Query + " " + req.FieldContext)

	if containsAny(fieldLower, multiItemKeywords) {
		var mainLinks []string
		for _, u := range urls {
			if containsAny(strings.ToLower(u), professionalSites) {
				mainLinks = append(mainLinks, u)
			}
		}
		if len(mainLinks) > 0 {
			if len(mainLinks) > 3 {
				mainLinks = mainLinks[:3]
			}
			return strings.Join(mainLinks, ", "), true
		}
	}

	if strings.Contains(combined, "github") {
		for _, u := range urls {
			if strings.Contains(strings.ToLower(u), "github.com") {
				return u, true
			}
		}
	}
	if strings.Contains(combined, "linkedin") {
		for _, u := range urls {
			if strings.Contains(strings.ToLower(u), "linkedin.com") {
				return u, true
			}
		}
	}
	if strings.Contains(combined, "portfolio") {
		for _, u := range urls {
			lower := strings.ToLower(u)
			if !strings.Contains(lower, "github.com") && !strings.Contains(lower, "linkedin.com") {
				return u, true
			}
		}
	}

	return urls[0], true
}

// extractGeneric 按句号切句，返回第一个包含任一查询关键词的句子，截断到 200 字符。
func extractGeneric(req Request) (string, bool) {
	words := strings.Fields(strings.ToLower(req.Query))
	if len(words) == 0 {
		return "", false
	}

	for _, sentence := range strings.Split(req.Context, ".") {
		s := strings.TrimSpace(sentence)
		if s == "" {
			continue
		}
		lower := strings.ToLower(s)
		for _, w := range words {
			if strings.Contains(lower, w) {
				if runes := []rune(s); len(runes) > 200 {
					s = string(runes[:200])
				}
				return s, true
			}
		}
	}
	return "", false
}
