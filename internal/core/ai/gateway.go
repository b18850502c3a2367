package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"recipe-enricher/internal/core/ai/provider"
	"recipe-enricher/internal/infrastructure/config"
	"recipe-enricher/internal/pkg/common"

	"go.uber.org/zap"
)

// Generator 結構化生成介面，供各 pipeline 階段注入
type Generator interface {
	GenerateStructured(ctx context.Context, prompt string) (*StructuredResult, error)
}

// StructuredResult 正規化後的結構化回應
type StructuredResult struct {
	Raw      json.RawMessage `json:"raw"`
	Attempts int             `json:"attempts"`
}

// Decode 解析到目標結構體
func (r *StructuredResult) Decode(v interface{}) error {
	if err := common.ParseJSONBytes(r.Raw, v); err != nil {
		return common.NewMalformedResponseError("failed to decode structured result", err)
	}
	return nil
}

// Gateway AI 閘道
// 負責重試、退避、單次嘗試逾時與回應形態正規化；不做任何快取
type Gateway struct {
	provider      provider.Provider
	maxRetries    int
	retryDelay    time.Duration
	retryDelayCap time.Duration
	timeout       time.Duration
}

// NewGateway 創建 AI 閘道
func NewGateway(cfg *config.Config) (*Gateway, error) {
	p, err := provider.New(cfg)
	if err != nil {
		return nil, err
	}
	return NewGatewayWithProvider(p, cfg.AI), nil
}

// NewGatewayWithProvider 以指定後端創建 AI 閘道
func NewGatewayWithProvider(p provider.Provider, cfg config.AIConfig) *Gateway {
	return &Gateway{
		provider:      p,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    cfg.RetryDelay,
		retryDelayCap: cfg.RetryDelayCap,
		timeout:       cfg.Timeout,
	}
}

// GenerateStructured 送出 prompt 並回傳正規化後的結構化結果。
// 嘗試期間的任何失敗（網路錯誤、非 2xx、逾時、JSON 解析失敗）都視為可重試，
// 直到最後一次嘗試才把最後的錯誤包裝後拋出
func (g *Gateway) GenerateStructured(ctx context.Context, prompt string) (*StructuredResult, error) {
	var lastErr error

	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		start := time.Now()
		raw, err := g.attempt(ctx, prompt)
		common.LogAICall(prompt, time.Since(start), err, "")

		if err == nil {
			return &StructuredResult{Raw: raw, Attempts: attempt}, nil
		}
		lastErr = err

		common.LogWarn("AI 嘗試失敗",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", g.maxRetries),
			zap.String("provider", g.provider.Name()),
			zap.Error(err),
		)

		if attempt < g.maxRetries {
			if err := g.wait(ctx, g.backoff(attempt)); err != nil {
				return nil, common.NewTransportError("backoff wait", err)
			}
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", g.maxRetries, lastErr)
}

// attempt 單次嘗試：呼叫後端、正規化、驗證 JSON
func (g *Gateway) attempt(ctx context.Context, prompt string) (json.RawMessage, error) {
	attemptCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	content, err := g.provider.Generate(attemptCtx, prompt)
	if err != nil {
		// 逾時中止以 TransportError 呈現，與非 2xx 回應區分
		if attemptCtx.Err() == context.DeadlineExceeded {
			return nil, common.NewTransportError(
				fmt.Sprintf("%s request timed out after %s", g.provider.Name(), g.timeout), err)
		}
		return nil, err
	}

	normalized := common.NormalizeAIContent(content)
	if !json.Valid([]byte(normalized)) {
		quoted := common.QuoteJSONKeys(normalized)
		if !json.Valid([]byte(quoted)) {
			return nil, common.NewMalformedResponseError("AI response is not valid JSON", nil)
		}
		normalized = quoted
	}

	return json.RawMessage(normalized), nil
}

// backoff 指數退避：retryDelay * 2^(attempt-1)，可設上限
func (g *Gateway) backoff(attempt int) time.Duration {
	delay := g.retryDelay << (attempt - 1)
	if g.retryDelayCap > 0 && delay > g.retryDelayCap {
		delay = g.retryDelayCap
	}
	return delay
}

func (g *Gateway) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
