package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"recipe-enricher/internal/infrastructure/config"
	"recipe-enricher/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// 要求模型只回 JSON，避免前後夾雜說明文字
const jsonOnlySuffix = "\n\nRespond ONLY with a valid JSON object, without any text before or after."

// OllamaProvider 本地模型後端
type OllamaProvider struct {
	client *resty.Client
	model  string
}

// NewOllamaProvider 創建本地模型後端
func NewOllamaProvider(cfg config.OllamaConfig) *OllamaProvider {
	client := resty.New().
		SetBaseURL(cfg.BaseURL()).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &OllamaProvider{
		client: client,
		model:  cfg.Model,
	}
}

// Name 後端名稱
func (p *OllamaProvider) Name() string { return "ollama" }

// generateResponse /api/generate 的回應
// response 欄位可能是字串，也可能直接是解析好的物件
type generateResponse struct {
	Response json.RawMessage `json:"response"`
}

// Generate 生成回應
func (p *OllamaProvider) Generate(ctx context.Context, prompt string) (string, error) {
	req := map[string]interface{}{
		"model":  p.model,
		"prompt": prompt + jsonOnlySuffix,
		"stream": false,
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/api/generate")

	if err != nil {
		return "", common.NewTransportError("ollama generate", err)
	}

	if resp.StatusCode() != http.StatusOK {
		common.LogError("Ollama API returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", p.model),
		)
		return "", fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode(), resp.String())
	}

	var result generateResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", common.NewMalformedResponseError("failed to parse ollama response", err)
	}
	if len(result.Response) == 0 {
		return "", common.NewMalformedResponseError("empty response field in ollama reply", nil)
	}

	// 字串形態先去掉外層引號，物件形態原樣交給閘道
	var asString string
	if err := json.Unmarshal(result.Response, &asString); err == nil {
		return asString, nil
	}
	return string(result.Response), nil
}
