package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"whatdidido/internal/config"
	"whatdidido/pkg/logger"
	"whatdidido/pkg/models"
)

// Classifier 截图分类器
// 对每一帧截图调用视觉模型，产出分类/活动/描述三元组；
// 统计核心不依赖它，它只是采样管线的供货方
type Classifier struct {
	configMgr *config.Manager
	client    *http.Client
}

// NewClassifier 创建截图分类器
func NewClassifier(configMgr *config.Manager) *Classifier {
	return &Classifier{
		configMgr: configMgr,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Classification 单帧分类结果
type Classification struct {
	Category    models.Category `json:"category"`
	Activity    string          `json:"activity"`
	Description string          `json:"description"`
}

// OpenAI 格式请求结构（deepseek/qwen/doubao 均兼容该格式）
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []interface{} `json:"content"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type imageContent struct {
	Type     string   `json:"type"`
	ImageURL imageURL `json:"image_url"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chatEndpoint 根据提供商确定 chat/completions 端点
func chatEndpoint(cfg models.AIConfig) (string, error) {
	if cfg.Endpoint != "" {
		return cfg.Endpoint, nil
	}
	if cfg.BaseURL != "" {
		return strings.TrimSuffix(cfg.BaseURL, "/") + "/chat/completions", nil
	}

	switch cfg.Provider {
	case "openai":
		return "https://api.openai.com/v1/chat/completions", nil
	case "deepseek":
		return "https://api.deepseek.com/v1/chat/completions", nil
	case "qwen", "tongyi":
		return "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions", nil
	case "doubao":
		return "https://ark.cn-beijing.volces.com/api/v3/chat/completions", nil
	default:
		return "", fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

// ClassifyScreenshot 对一帧 JPEG 截图做分类
// 返回的 Category 一定属于封闭集合；模型给出集合外的值时落到 UNKNOWN
func (c *Classifier) ClassifyScreenshot(imageJPEG []byte) (*Classification, error) {
	cfg := c.configMgr.GetAI()

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("AI API key is not configured")
	}

	endpoint, err := chatEndpoint(cfg)
	if err != nil {
		return nil, err
	}

	base64Image := base64.StdEncoding.EncodeToString(imageJPEG)
	reqBody := chatRequest{
		Model: cfg.Model,
		Messages: []chatMessage{
			{
				Role: "system",
				Content: []interface{}{
					textContent{
						Type: "text",
						Text: "你是一个屏幕活动分类助手，根据单张屏幕截图判断用户当前的活动类型。",
					},
				},
			},
			{
				Role: "user",
				Content: []interface{}{
					textContent{
						Type: "text",
						Text: buildPrompt(),
					},
					imageContent{
						Type: "image_url",
						ImageURL: imageURL{
							URL: fmt.Sprintf("data:image/jpeg;base64,%s", base64Image),
						},
					},
				},
			},
		},
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), "POST", endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	var apiResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("no response from API")
	}

	return parseClassification(apiResp.Choices[0].Message.Content)
}

// buildPrompt 构建分类提示词
// category 必须严格取枚举值，其他字段用于前端展示
func buildPrompt() string {
	return `请根据这张屏幕截图判断用户当前在做什么。

分类规则：
- WORK: 编程、文档、邮件、会议等工作内容
- LEARN: 教程、课程、技术文章、文档阅读等学习内容
- SOCIAL: 聊天工具、社交网络
- ENTERTAINMENT: 视频、游戏、音乐、购物等娱乐内容
- UNKNOWN: 无法判断（黑屏、锁屏、空白桌面等）

请严格按照以下 JSON 格式返回（不要包含任何其他文本）：
{
  "category": "WORK",
  "activity": "使用 VS Code 编写 Go 代码",
  "description": "屏幕上是一个打开的编辑器窗口，正在编辑 main.go"
}`
}

// parseClassification 解析模型返回
// 有些模型会在 JSON 前后附加文本，尝试截取第一个 JSON 片段
func parseClassification(response string) (*Classification, error) {
	var result Classification

	if err := json.Unmarshal([]byte(response), &result); err != nil {
		start := strings.Index(response, "{")
		end := strings.LastIndex(response, "}")
		if start >= 0 && end > start {
			if err := json.Unmarshal([]byte(response[start:end+1]), &result); err != nil {
				return nil, fmt.Errorf("failed to parse JSON: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	// 分类是封闭集合，模型输出集合外的值时落到 UNKNOWN
	result.Category = models.Category(strings.ToUpper(strings.TrimSpace(string(result.Category))))
	if !models.ValidCategory(result.Category) {
		logger.Warn("模型返回了未知分类: %s，使用 UNKNOWN", result.Category)
		result.Category = models.CategoryUnknown
	}

	return &result, nil
}

// TestConnection 测试 AI 连接并获取模型列表
func (c *Classifier) TestConnection(provider, apiKey, baseURL string) ([]map[string]string, error) {
	var endpoint string

	if baseURL != "" {
		endpoint = strings.TrimSuffix(baseURL, "/") + "/models"
	} else {
		switch provider {
		case "openai":
			endpoint = "https://api.openai.com/v1/models"
		case "deepseek":
			endpoint = "https://api.deepseek.com/v1/models"
		case "qwen", "tongyi":
			endpoint = "https://dashscope.aliyuncs.com/compatible-mode/v1/models"
		case "doubao":
			endpoint = "https://ark.cn-beijing.volces.com/api/v3/models"
		case "custom":
			return nil, fmt.Errorf("自定义提供商需要指定 Base URL")
		default:
			return nil, fmt.Errorf("不支持的 AI 提供商: %s", provider)
		}
	}

	req, err := http.NewRequestWithContext(context.Background(), "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API 返回错误 %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Data []struct {
			ID      string `json:"id"`
			OwnedBy string `json:"owned_by"`
		} `json:"data"`
		Object string `json:"object"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	modelList := make([]map[string]string, 0, len(result.Data))
	for _, m := range result.Data {
		modelList = append(modelList, map[string]string{
			"id":   m.ID,
			"name": m.ID, // 使用 ID 作为显示名称
		})
	}

	if len(modelList) == 0 {
		return nil, fmt.Errorf("未找到可用模型")
	}

	return modelList, nil
}
