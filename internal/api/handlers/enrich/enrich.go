package enrich

import (
	"net/http"

	"recipe-enricher/internal/core/pipeline"
	"recipe-enricher/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 充實請求處理器
type Handler struct {
	enricher *pipeline.Enricher
}

// NewHandler 創建處理器
func NewHandler(enricher *pipeline.Enricher) *Handler {
	return &Handler{enricher: enricher}
}

// EnrichRequest 充實請求
type EnrichRequest struct {
	Source string `json:"source" binding:"required"`
	Input  string `json:"input" binding:"required"`
}

// HandleEnrich 執行單次食譜充實
func (h *Handler) HandleEnrich(c *gin.Context) {
	var req EnrichRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("充實請求格式錯誤", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "source and input are required",
			"code":  "INVALID_REQUEST",
		})
		return
	}

	summary, err := h.enricher.EnrichRecipe(c.Request.Context(), req.Source, req.Input)
	if err != nil {
		status, code := classifyError(err)
		common.LogError("充實食譜失敗",
			zap.String("source", req.Source),
			zap.String("input", req.Input),
			zap.Error(err),
		)
		c.JSON(status, gin.H{
			"error": err.Error(),
			"code":  code,
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// HandleStats 目錄統計
func (h *Handler) HandleStats(c *gin.Context) {
	stats, err := h.enricher.GetStats(c.Request.Context())
	if err != nil {
		common.LogError("讀取目錄統計失敗", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"error": err.Error(),
			"code":  "CATALOG_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// classifyError 依錯誤類型決定狀態碼
func classifyError(err error) (int, string) {
	switch {
	case common.IsValidationError(err):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case common.IsTimeoutError(err):
		return http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"
	case common.IsAuthError(err):
		return http.StatusBadGateway, "UPSTREAM_AUTH_FAILED"
	case common.IsTransportError(err):
		return http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "ENRICHMENT_FAILED"
	}
}
