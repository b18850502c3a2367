package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"recipe-enricher/internal/infrastructure/config"
	"recipe-enricher/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// OpenAIProvider 託管模型後端（chat-completion 形式）
type OpenAIProvider struct {
	client *resty.Client
	model  string
}

// NewOpenAIProvider 創建託管模型後端
func NewOpenAIProvider(cfg config.OpenAIConfig) *OpenAIProvider {
	client := resty.New().
		SetBaseURL("https://api.openai.com/v1").
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey))

	return &OpenAIProvider{
		client: client,
		model:  cfg.Model,
	}
}

// Name 後端名稱
func (p *OpenAIProvider) Name() string { return "openai" }

// Generate 生成回應
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	req := map[string]interface{}{
		"model": p.model,
		"messages": []map[string]interface{}{
			{
				"role":    "system",
				"content": prompt,
			},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     0.2,
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")

	if err != nil {
		return "", common.NewTransportError("openai chat completion", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("openai API error (status %d): %s", resp.StatusCode(), resp.String())
	}

	// 解析回應
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", common.NewMalformedResponseError("failed to parse openai response", err)
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", common.NewMalformedResponseError("empty choices in openai response", nil)
	}

	return result.Choices[0].Message.Content, nil
}
