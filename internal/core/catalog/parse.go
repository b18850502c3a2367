package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"recipe-enricher/internal/infrastructure/config"
	"recipe-enricher/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Parse Server 不回報 session 到期時間，保守假設一小時
const sessionValidity = time.Hour

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// RequestHook 在每次已認證請求前後呼叫，供呼叫端掛監控或審計
type RequestHook func(method, path string)

// ParseCatalog 透過 Parse Server REST API 實作目錄
type ParseCatalog struct {
	http     *resty.Client
	username string
	password string

	credential Credential

	// 選配的請求鉤子，nil 表示不掛
	PreRequest  RequestHook
	PostRequest RequestHook
}

// NewParseCatalog 創建 Parse Server 目錄客戶端
func NewParseCatalog(cfg config.CatalogConfig) *ParseCatalog {
	client := resty.New().
		SetBaseURL(cfg.ServerURL).
		SetHeader("X-Parse-Application-Id", cfg.AppID).
		SetHeader("X-Parse-REST-API-Key", cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &ParseCatalog{
		http:     client,
		username: cfg.Username,
		password: cfg.Password,
	}
}

// login 取得會話憑證
func (p *ParseCatalog) login(ctx context.Context) error {
	resp, err := p.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"username": p.username,
			"password": p.password,
		}).
		Get("/login")

	if err != nil {
		return common.NewAuthError("catalog login request failed", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return common.NewAuthError(
			fmt.Sprintf("catalog login failed (status %d): %s", resp.StatusCode(), resp.String()), nil)
	}

	var result struct {
		SessionToken string `json:"sessionToken"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return common.NewAuthError("failed to parse catalog login response", err)
	}
	if result.SessionToken == "" {
		return common.NewAuthError("empty session token in catalog login response", nil)
	}

	p.credential = Credential{
		SessionToken: result.SessionToken,
		ExpiresAt:    time.Now().Add(sessionValidity),
	}
	return nil
}

func (p *ParseCatalog) ensureSession(ctx context.Context) error {
	if p.credential.Valid() {
		return nil
	}
	return p.login(ctx)
}

// request 已認證請求；會話失效時重登一次並重試一次
func (p *ParseCatalog) request(ctx context.Context, method, path string, build func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	if err := p.ensureSession(ctx); err != nil {
		return nil, err
	}

	if p.PreRequest != nil {
		p.PreRequest(method, path)
	}

	send := func() (*resty.Response, error) {
		req := p.http.R().
			SetContext(ctx).
			SetHeader("X-Parse-Session-Token", p.credential.SessionToken)
		return build(req)
	}

	resp, err := send()
	if err != nil {
		return nil, common.NewTransportError(fmt.Sprintf("%s %s", method, path), err)
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		if err := p.login(ctx); err != nil {
			return nil, err
		}
		resp, err = send()
		if err != nil {
			return nil, common.NewTransportError(fmt.Sprintf("%s %s", method, path), err)
		}
	}

	if p.PostRequest != nil {
		p.PostRequest(method, path)
	}
	return resp, nil
}

// findIngredient 以單一欄位等值查詢食材
func (p *ParseCatalog) findIngredient(ctx context.Context, field, value string) (*common.CatalogIngredient, error) {
	where, err := json.Marshal(map[string]string{field: value})
	if err != nil {
		return nil, err
	}

	resp, err := p.request(ctx, http.MethodGet, "/classes/Ingredient", func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetQueryParam("where", string(where)).
			SetQueryParam("limit", "1").
			Get("/classes/Ingredient")
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("catalog query failed (status %d): %s", resp.StatusCode(), resp.String())
	}

	var result struct {
		Results []struct {
			ObjectID string `json:"objectId"`
			common.CatalogIngredient
		} `json:"results"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse catalog query response: %w", err)
	}
	if len(result.Results) == 0 {
		return nil, common.ErrNotFound
	}

	ing := result.Results[0].CatalogIngredient
	ing.ID = result.Results[0].ObjectID
	return &ing, nil
}

// FindIngredientByName 以正規化名稱查詢
func (p *ParseCatalog) FindIngredientByName(ctx context.Context, name string) (*common.CatalogIngredient, error) {
	return p.findIngredient(ctx, "name", name)
}

// FindIngredientByDisplayName 以顯示名稱查詢
func (p *ParseCatalog) FindIngredientByDisplayName(ctx context.Context, displayName string) (*common.CatalogIngredient, error) {
	return p.findIngredient(ctx, "displayName", displayName)
}

// create 建立物件並回傳 objectId
func (p *ParseCatalog) create(ctx context.Context, class string, body interface{}) (string, error) {
	resp, err := p.request(ctx, http.MethodPost, "/classes/"+class, func(req *resty.Request) (*resty.Response, error) {
		return req.SetBody(body).Post("/classes/" + class)
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("catalog create %s failed (status %d): %s", class, resp.StatusCode(), resp.String())
	}

	var result struct {
		ObjectID string `json:"objectId"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse catalog create response: %w", err)
	}
	return result.ObjectID, nil
}

// SaveIngredient 寫入食材；name 為空時改用 displayName 的 slug
func (p *ParseCatalog) SaveIngredient(ctx context.Context, ing *common.CatalogIngredient) (string, error) {
	if ing.Name == "" {
		ing.Name = Slug(ing.DisplayName)
	}

	id, err := p.create(ctx, "Ingredient", ing)
	if err != nil {
		return "", err
	}
	common.LogInfo("食材已寫入目錄",
		zap.String("id", id),
		zap.String("name", ing.Name),
	)
	return id, nil
}

// SaveRecipe 寫入食譜；slug 缺漏時由標題產生
func (p *ParseCatalog) SaveRecipe(ctx context.Context, recipe *RecipeRecord) (string, error) {
	if recipe.Slug == "" {
		recipe.Slug = Slug(recipe.Title)
	}

	id, err := p.create(ctx, "Recipe", recipe)
	if err != nil {
		return "", err
	}
	common.LogInfo("食譜已寫入目錄",
		zap.String("id", id),
		zap.String("title", recipe.Title),
	)
	return id, nil
}

// SaveRecipeStep 寫入食譜步驟
func (p *ParseCatalog) SaveRecipeStep(ctx context.Context, step *StepRecord) (string, error) {
	return p.create(ctx, "Step", step)
}

// count 查詢類別筆數
func (p *ParseCatalog) count(ctx context.Context, class string) (int, error) {
	resp, err := p.request(ctx, http.MethodGet, "/classes/"+class, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetQueryParam("limit", "0").
			SetQueryParam("count", "1").
			Get("/classes/" + class)
	})
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("catalog count %s failed (status %d)", class, resp.StatusCode())
	}

	var result struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return 0, fmt.Errorf("failed to parse catalog count response: %w", err)
	}
	return result.Count, nil
}

// Stats 目錄統計
func (p *ParseCatalog) Stats(ctx context.Context) (*common.CatalogStats, error) {
	stats := &common.CatalogStats{}
	var err error

	if stats.Recipes, err = p.count(ctx, "Recipe"); err != nil {
		return nil, err
	}
	if stats.Ingredients, err = p.count(ctx, "Ingredient"); err != nil {
		return nil, err
	}
	if stats.Steps, err = p.count(ctx, "Step"); err != nil {
		return nil, err
	}
	return stats, nil
}

// Slug 由顯示名稱產生正規化識別名
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugCleaner.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
