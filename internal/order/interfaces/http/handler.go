// Package http 订单上下文的 HTTP 接口：下单、撤单、改单与查询。
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/ordermanagement/internal/order/application"
	"github.com/wyfcoding/ordermanagement/internal/order/domain"
)

// OrderHandler 处理订单相关的 HTTP 请求
type OrderHandler struct {
	svc *application.OrderService
}

// NewOrderHandler 创建 HTTP 处理器
func NewOrderHandler(svc *application.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes 注册路由。extra 中间件只挂在下单接口上（限流）。
func (h *OrderHandler) RegisterRoutes(api *gin.RouterGroup, extra ...gin.HandlerFunc) {
	orders := api.Group("/orders")
	orders.POST("", append(extra, h.CreateOrder)...)
	orders.GET("", h.ListOrders)
	orders.GET("/:id", h.GetOrder)
	orders.POST("/:id/cancel", h.CancelOrder)
	orders.POST("/:id/amend", h.AmendOrder)
	orders.GET("/:id/executions", h.ListExecutions)
}

// respondError 将业务错误映射为 HTTP 状态码。
// 风控拒绝不走这里：被拒订单照常落库，Create 返回 REJECTED 响应。
func (h *OrderHandler) respondError(c *gin.Context, err error) {
	var appErr *application.Error
	switch {
	case errors.Is(err, application.ErrOrderNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, application.ErrEngineBusy):
		response.ErrorWithStatus(c, http.StatusServiceUnavailable, err.Error(), "")
	case errors.Is(err, domain.ErrNotEditable):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
	case errors.Is(err, domain.ErrQtyBelowFilled):
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, err.Error(), "")
	case errors.As(err, &appErr):
		response.ErrorWithStatus(c, http.StatusBadRequest, appErr.Message, appErr.Code)
	default:
		logging.Error(c.Request.Context(), "Order request failed", "path", c.FullPath(), "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}

// CreateOrder 下单
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req application.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	order, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders 条件查询订单
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, err := h.svc.List(c.Request.Context(),
		c.Query("clientId"), c.Query("symbol"), c.Query("status"), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, orders)
}

// GetOrder 查询单个订单
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrder 撤单。终态与已受理取消的订单幂等返回当前状态。
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	order, err := h.svc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, order)
}

// AmendOrder 改单
func (h *OrderHandler) AmendOrder(c *gin.Context) {
	var req application.AmendOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	order, err := h.svc.Amend(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, order)
}

// ListExecutions 查询订单成交明细
func (h *OrderHandler) ListExecutions(c *gin.Context) {
	executions, err := h.svc.ListExecutions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, executions)
}
