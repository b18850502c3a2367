package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"recipe-enricher/internal/infrastructure/config"
	"recipe-enricher/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// token 有效期為 600 分鐘
const tokenValidity = 600 * time.Minute

// 從食譜頁面要抽取的元素；selector 語法由抓取服務自行解讀
var recipeSelectors = map[string]string{
	"title":           `h1, .recipe-title, [class*="title"]`,
	"description":     `.recipe-description, .description, .intro`,
	"ingredients":     `.ingredients li, .ingredient-list li, [class*="ingredient"]`,
	"steps":           `.instructions li, .steps li, .method li, [class*="step"]`,
	"preparationTime": `[class*="prep"], [data-time="prep"]`,
	"cookingTime":     `[class*="cook"], [data-time="cook"]`,
	"portions":        `[class*="serving"], [class*="portion"]`,
}

// Client 抓取服務客戶端
// token 為實例狀態，過期時惰性重新認證；不跨實例共享
type Client struct {
	http         *resty.Client
	username     string
	password     string
	pollInterval time.Duration
	pollAttempts int

	token       string
	tokenExpiry time.Time
}

// NewClient 創建抓取服務客戶端
func NewClient(cfg config.ScraperConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL()).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:         client,
		username:     cfg.Username,
		password:     cfg.Password,
		pollInterval: cfg.PollInterval,
		pollAttempts: cfg.PollAttempts,
	}
}

// Authenticate 以 password grant 換取 bearer token
func (c *Client) Authenticate(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"grant_type": "password",
			"username":   c.username,
			"password":   c.password,
		}).
		Post("/auth/token")

	if err != nil {
		return common.NewAuthError("authentication request failed", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return common.NewAuthError(
			fmt.Sprintf("authentication failed (status %d): %s", resp.StatusCode(), resp.String()), nil)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return common.NewAuthError("failed to parse auth response", err)
	}
	if result.AccessToken == "" {
		return common.NewAuthError("empty access token in auth response", nil)
	}

	c.token = result.AccessToken
	c.tokenExpiry = time.Now().Add(tokenValidity)
	return nil
}

// ensureAuthenticated token 不存在或過期時才重新認證
func (c *Client) ensureAuthenticated(ctx context.Context) error {
	if c.token == "" || time.Now().After(c.tokenExpiry) {
		return c.Authenticate(ctx)
	}
	return nil
}

// do 發送已認證的請求；收到 401 時重新認證一次並重試一次
func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*resty.Response, error) {
	if err := c.ensureAuthenticated(ctx); err != nil {
		return nil, err
	}

	send := func() (*resty.Response, error) {
		req := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetAuthToken(c.token)
		if body != nil {
			req.SetBody(body)
		}
		return req.Execute(method, path)
	}

	resp, err := send()
	if err != nil {
		return nil, common.NewTransportError(fmt.Sprintf("%s %s", method, path), err)
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
		resp, err = send()
		if err != nil {
			return nil, common.NewTransportError(fmt.Sprintf("%s %s", method, path), err)
		}
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("scraper API error (status %d): %s", resp.StatusCode(), resp.String())
	}
	return resp, nil
}

// SubmitJob 提交抓取任務並回傳指派的任務 ID
func (c *Client) SubmitJob(ctx context.Context, url string, elements map[string]string) (string, error) {
	payload := map[string]interface{}{
		"id":           "",
		"url":          url,
		"elements":     elements,
		"user":         "",
		"time_created": time.Now().UTC().Format(time.RFC3339),
		"result":       []interface{}{},
		"job_options": map[string]interface{}{
			"multi_page_scrape": false,
			"custom_headers":    map[string]string{},
		},
		"status": common.JobQueued,
		"chat":   "",
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/submit-scrape-job", payload)
	if err != nil {
		return "", err
	}

	var job common.ScrapeJob
	if err := json.Unmarshal(resp.Body(), &job); err != nil {
		return "", fmt.Errorf("failed to parse submit response: %w", err)
	}
	if job.ID == "" {
		return "", fmt.Errorf("scraper did not assign a job id")
	}
	return job.ID, nil
}

// GetJobStatus 查詢任務狀態
func (c *Client) GetJobStatus(ctx context.Context, jobID string) (*common.ScrapeJob, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/job/"+jobID, nil)
	if err != nil {
		return nil, err
	}

	var job common.ScrapeJob
	if err := json.Unmarshal(resp.Body(), &job); err != nil {
		return nil, fmt.Errorf("failed to parse job status: %w", err)
	}
	return &job, nil
}

// UpdateJob 更新任務欄位
func (c *Client) UpdateJob(ctx context.Context, jobID, field string, value interface{}) error {
	payload := map[string]interface{}{
		"ids":   []string{jobID},
		"field": field,
		"value": value,
	}
	_, err := c.do(ctx, http.MethodPost, "/api/update", payload)
	return err
}

// DeleteJob 刪除任務，任務到達終態後必須呼叫，避免殘留在服務端
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	payload := map[string]interface{}{
		"ids": []string{jobID},
	}
	_, err := c.do(ctx, http.MethodPost, "/api/delete-scrape-jobs", payload)
	return err
}

// ScrapeRecipe 抓取單一食譜頁面：提交任務、輪詢到終態、清理、解析結果
func (c *Client) ScrapeRecipe(ctx context.Context, url string) (*common.RawRecipe, error) {
	common.LogInfo("開始抓取", zap.String("url", url))

	jobID, err := c.SubmitJob(ctx, url, recipeSelectors)
	if err != nil {
		return nil, fmt.Errorf("failed to submit scrape job: %w", err)
	}
	common.LogInfo("抓取任務已提交", zap.String("job_id", jobID))

	for attempt := 1; attempt <= c.pollAttempts; attempt++ {
		job, err := c.GetJobStatus(ctx, jobID)
		if err != nil {
			return nil, err
		}
		common.LogDebug("抓取任務狀態", zap.String("job_id", jobID), zap.String("status", job.Status))

		switch job.Status {
		case common.JobCompleted:
			common.LogInfo("抓取完成", zap.String("job_id", jobID))
			if err := c.DeleteJob(ctx, jobID); err != nil {
				common.LogWarn("抓取任務刪除失敗", zap.String("job_id", jobID), zap.Error(err))
			}
			return ParseScrapedRecipe(job.Result, url), nil

		case common.JobFailed:
			if err := c.DeleteJob(ctx, jobID); err != nil {
				common.LogWarn("抓取任務刪除失敗", zap.String("job_id", jobID), zap.Error(err))
			}
			reason := job.Error
			if reason == "" {
				reason = "unknown error"
			}
			return nil, fmt.Errorf("scrape job failed: %s", reason)
		}

		if attempt < c.pollAttempts {
			if err := c.wait(ctx); err != nil {
				return nil, common.NewTransportError("poll wait", err)
			}
		}
	}

	// 輪詢預算用盡，任務仍未到終態
	if err := c.DeleteJob(ctx, jobID); err != nil {
		common.LogWarn("抓取任務刪除失敗", zap.String("job_id", jobID), zap.Error(err))
	}
	return nil, common.NewTimeoutError(
		fmt.Sprintf("scrape job %s still pending after %d poll attempts", jobID, c.pollAttempts))
}

func (c *Client) wait(ctx context.Context) error {
	timer := time.NewTimer(c.pollInterval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
