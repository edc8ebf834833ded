package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/ordermanagement/internal/position/application"
)

// PositionHandler 处理持仓查询相关的 HTTP 请求
type PositionHandler struct {
	svc *application.PositionService
}

// NewPositionHandler 创建 HTTP 处理器
func NewPositionHandler(svc *application.PositionService) *PositionHandler {
	return &PositionHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *PositionHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/positions", h.ListPositions)
}

// ListPositions 按客户列出派生持仓
func (h *PositionHandler) ListPositions(c *gin.Context) {
	clientID := c.Query("clientId")
	if clientID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "clientId is required", "")
		return
	}

	positions, err := h.svc.ByClient(c.Request.Context(), clientID)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list positions", "client_id", clientID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, positions)
}
