package ai_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"recipe-enricher/internal/core/ai"
	"recipe-enricher/internal/infrastructure/config"
	"recipe-enricher/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	common.Logger = zap.NewNop()
}

// scriptedProvider 依序回放預先安排的回應
type scriptedProvider struct {
	responses []func(ctx context.Context) (string, error)
	calls     int
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if p.calls >= len(p.responses) {
		return "", errors.New("no more scripted responses")
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp(ctx)
}

func (p *scriptedProvider) Name() string { return "scripted" }

func ok(content string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) { return content, nil }
}

func fail(msg string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) { return "", errors.New(msg) }
}

func testAIConfig() config.AIConfig {
	return config.AIConfig{
		MaxRetries:    3,
		RetryDelay:    5 * time.Millisecond,
		RetryDelayCap: 20 * time.Millisecond,
	}
}

func TestGenerateStructured_SucceedsAfterTransientFailures(t *testing.T) {
	p := &scriptedProvider{responses: []func(ctx context.Context) (string, error){
		fail("connection refused"),
		fail("connection refused"),
		ok(`{"name":"carrot"}`),
	}}
	g := ai.NewGatewayWithProvider(p, testAIConfig())

	start := time.Now()
	result, err := g.GenerateStructured(context.Background(), "describe carrot")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 3, p.calls)
	// 兩次退避：5ms + 10ms
	assert.GreaterOrEqual(t, elapsed, 15*time.Millisecond)

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, result.Decode(&out))
	assert.Equal(t, "carrot", out.Name)
}

func TestGenerateStructured_StripsCodeFences(t *testing.T) {
	p := &scriptedProvider{responses: []func(ctx context.Context) (string, error){
		ok("```json\n{\"name\":\"leek\"}\n```"),
	}}
	g := ai.NewGatewayWithProvider(p, testAIConfig())

	result, err := g.GenerateStructured(context.Background(), "describe leek")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempts)
	assert.JSONEq(t, `{"name":"leek"}`, string(result.Raw))
}

func TestGenerateStructured_InvalidJSONIsRetried(t *testing.T) {
	p := &scriptedProvider{responses: []func(ctx context.Context) (string, error){
		ok("I am not JSON and never will be"),
		ok(`{"name":"onion"}`),
	}}
	g := ai.NewGatewayWithProvider(p, testAIConfig())

	result, err := g.GenerateStructured(context.Background(), "describe onion")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempts)
}

func TestGenerateStructured_ExhaustedRetriesWrapsLastError(t *testing.T) {
	p := &scriptedProvider{responses: []func(ctx context.Context) (string, error){
		fail("boom 1"),
		fail("boom 2"),
		fail("boom 3"),
	}}
	g := ai.NewGatewayWithProvider(p, testAIConfig())

	_, err := g.GenerateStructured(context.Background(), "describe nothing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Contains(t, err.Error(), "boom 3")
	assert.Equal(t, 3, p.calls)
}

func TestGenerateStructured_AttemptTimeout(t *testing.T) {
	p := &scriptedProvider{responses: []func(ctx context.Context) (string, error){
		func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}}
	cfg := testAIConfig()
	cfg.MaxRetries = 1
	cfg.Timeout = 10 * time.Millisecond
	g := ai.NewGatewayWithProvider(p, cfg)

	_, err := g.GenerateStructured(context.Background(), "slow prompt")
	require.Error(t, err)
	assert.True(t, common.IsTransportError(err))
}

func TestGenerateStructured_CancelledContextStopsBackoff(t *testing.T) {
	p := &scriptedProvider{responses: []func(ctx context.Context) (string, error){
		fail("boom"),
		ok(`{"name":"never reached"}`),
	}}
	cfg := testAIConfig()
	cfg.RetryDelay = time.Second
	g := ai.NewGatewayWithProvider(p, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.GenerateStructured(ctx, "cancelled")
	require.Error(t, err)
	assert.Equal(t, 1, p.calls)
}
