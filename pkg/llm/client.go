// Package llm provides a client for interacting with a local Ollama server.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"formfiller-go/internal/config"
	"formfiller-go/pkg/log"
)

// Client defines the interface for an LLM client.
type Client interface {
	// Available 检查配置的模型当前是否可用。每次查询都重新探测，不做缓存。
	Available(ctx context.Context) bool
	// Generate 以低温度、限定输出长度调用模型，返回原始补全文本。
	Generate(ctx context.Context, prompt string) (string, error)
	// EnsureModel 检查模型是否已下载，缺失时触发拉取（可能耗时数分钟）。
	EnsureModel(ctx context.Context) error
}

type ollamaClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a new LLM client based on the provider in the config.
func NewClient(cfg config.LLMConfig) Client {
	return &ollamaClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type pullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

// modelFamily 返回模型名中冒号前的家族名，例如 llama3.1:8b -> llama3.1。
func (c *ollamaClient) modelFamily() string {
	name := c.cfg.Model
	if i := strings.Index(name, ":"); i > 0 {
		return name[:i]
	}
	return name
}

// Available 调用 /api/tags 检查配置的模型家族是否已安装。
func (c *ollamaClient) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", c.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false
	}

	family := c.modelFamily()
	for _, m := range tags.Models {
		if strings.Contains(m.Name, family) {
			return true
		}
	}
	return false
}

// Generate calls the Ollama completion API and returns the full response text.
func (c *ollamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: c.cfg.Temperature,
			NumPredict:  c.cfg.MaxTokens,
		},
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/api/generate", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[LLMClient] 调用 Ollama 失败, error: %v", err)
		return "", fmt.Errorf("failed to call ollama api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}

	return genResp.Response, nil
}

// EnsureModel 在模型缺失时触发 /api/pull 下载。启动阶段在后台调用。
func (c *ollamaClient) EnsureModel(ctx context.Context) error {
	if c.Available(ctx) {
		log.Infof("[LLMClient] 模型 %s 已就绪", c.cfg.Model)
		return nil
	}

	log.Infof("[LLMClient] 模型 %s 未找到, 开始拉取 (可能需要数分钟)...", c.cfg.Model)
	reqBytes, err := json.Marshal(pullRequest{Name: c.cfg.Model, Stream: false})
	if err != nil {
		return fmt.Errorf("failed to marshal pull request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/api/pull", bytes.NewReader(reqBytes))
	if err != nil {
		return fmt.Errorf("failed to create pull request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// 拉取模型耗时远超常规请求超时，单独使用不限时的客户端
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return fmt.Errorf("failed to pull model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama pull returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	log.Infof("[LLMClient] 模型 %s 拉取完成", c.cfg.Model)
	return nil
}
