package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/ordermanagement/internal/risk/application"
)

// RiskHandler 处理限额维护相关的 HTTP 请求
type RiskHandler struct {
	svc *application.RiskService
}

// NewRiskHandler 创建 HTTP 处理器
func NewRiskHandler(svc *application.RiskService) *RiskHandler {
	return &RiskHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *RiskHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/risk/limits", h.UpsertLimit)
	api.GET("/risk/limits", h.ListLimits)
}

// UpsertLimit 新建或覆盖限额
func (h *RiskHandler) UpsertLimit(c *gin.Context) {
	var req application.UpsertLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	limit, err := h.svc.UpsertLimit(c.Request.Context(), req)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to upsert risk limit", "client_id", req.ClientID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, limit)
}

// ListLimits 列出限额，支持按 clientId 过滤
func (h *RiskHandler) ListLimits(c *gin.Context) {
	limits, err := h.svc.ListLimits(c.Request.Context(), c.Query("clientId"))
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list risk limits", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, limits)
}
