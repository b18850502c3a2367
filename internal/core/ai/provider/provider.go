package provider

import (
	"context"
	"fmt"

	"recipe-enricher/internal/infrastructure/config"
)

// Provider 生成式文字後端
// Generate 回傳原始內容字串，可能是 JSON、也可能被 code fence 或雜文包住，
// 由上層閘道負責正規化
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// New 依設定創建後端
func New(cfg *config.Config) (Provider, error) {
	switch cfg.AI.Provider {
	case "ollama":
		return NewOllamaProvider(cfg.Ollama), nil
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI), nil
	default:
		return nil, fmt.Errorf("unknown ai provider: %s", cfg.AI.Provider)
	}
}
