// Package http 账户上下文的 HTTP 接口：充值、提现与资金总览。
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/ordermanagement/internal/account/application"
	"github.com/wyfcoding/ordermanagement/internal/account/domain"
)

// 演示环境缺省客户，与查询参数和请求头的解析顺序保持一致
const fallbackClientID = "demo-client-1"

// AccountHandler 处理账户相关的 HTTP 请求
type AccountHandler struct {
	svc *application.AccountService
}

// NewAccountHandler 创建 HTTP 处理器
func NewAccountHandler(svc *application.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *AccountHandler) RegisterRoutes(api *gin.RouterGroup) {
	deposits := api.Group("/deposits")
	deposits.POST("", h.CreateDeposit)
	deposits.GET("", h.ListDeposits)
	deposits.GET("/:id", h.GetDeposit)
	deposits.POST("/:id/confirm", h.ConfirmDeposit)
	deposits.POST("/:id/complete", h.CompleteDeposit)
	deposits.POST("/:id/cancel", h.CancelDeposit)

	withdrawals := api.Group("/withdrawals")
	withdrawals.POST("", h.CreateWithdrawal)
	withdrawals.GET("", h.ListWithdrawals)
	withdrawals.GET("/:id", h.GetWithdrawal)
	withdrawals.POST("/:id/complete", h.CompleteWithdrawal)
	withdrawals.POST("/:id/reject", h.RejectWithdrawal)
	withdrawals.POST("/:id/cancel", h.CancelWithdrawal)

	api.GET("/dashboard", h.Dashboard)
}

// resolveClientID 解析客户标识：查询参数优先，其次请求头，最后演示缺省值
func resolveClientID(c *gin.Context) string {
	if clientID := c.Query("clientId"); clientID != "" {
		return clientID
	}
	if clientID := c.GetHeader("X-Client-Id"); clientID != "" {
		return clientID
	}
	return fallbackClientID
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

// respondError 将领域错误映射为 HTTP 状态码
func (h *AccountHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrDepositNotFound),
		errors.Is(err, domain.ErrWithdrawalNotFound),
		errors.Is(err, domain.ErrAccountNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrInvalidAmount):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, domain.ErrInsufficientAvailable):
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, err.Error(), "")
	case errors.Is(err, domain.ErrInvalidTransition):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "Account request failed", "path", c.FullPath(), "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}

// CreateDeposit 创建充值订单
func (h *AccountHandler) CreateDeposit(c *gin.Context) {
	var req application.CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if req.ClientID == "" {
		req.ClientID = resolveClientID(c)
	}

	deposit, err := h.svc.CreateDeposit(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, deposit)
}

// ListDeposits 分页查询客户充值订单
func (h *AccountHandler) ListDeposits(c *gin.Context) {
	limit, offset := pagination(c)
	deposits, err := h.svc.ListDeposits(c.Request.Context(), resolveClientID(c), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, deposits)
}

// GetDeposit 查询单笔充值订单
func (h *AccountHandler) GetDeposit(c *gin.Context) {
	deposit, err := h.svc.GetDeposit(c.Request.Context(), resolveClientID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, deposit)
}

// ConfirmDeposit 网关确认充值
func (h *AccountHandler) ConfirmDeposit(c *gin.Context) {
	var req application.ConfirmDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	deposit, err := h.svc.ConfirmDeposit(c.Request.Context(), resolveClientID(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, deposit)
}

// CompleteDeposit 充值入账
func (h *AccountHandler) CompleteDeposit(c *gin.Context) {
	deposit, err := h.svc.CompleteDeposit(c.Request.Context(), resolveClientID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, deposit)
}

// CancelDeposit 取消充值
func (h *AccountHandler) CancelDeposit(c *gin.Context) {
	deposit, err := h.svc.CancelDeposit(c.Request.Context(), resolveClientID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, deposit)
}

// CreateWithdrawal 创建提现订单
func (h *AccountHandler) CreateWithdrawal(c *gin.Context) {
	var req application.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if req.ClientID == "" {
		req.ClientID = resolveClientID(c)
	}

	withdrawal, err := h.svc.CreateWithdrawal(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

// ListWithdrawals 分页查询客户提现订单
func (h *AccountHandler) ListWithdrawals(c *gin.Context) {
	limit, offset := pagination(c)
	withdrawals, err := h.svc.ListWithdrawals(c.Request.Context(), resolveClientID(c), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, withdrawals)
}

// GetWithdrawal 查询单笔提现订单
func (h *AccountHandler) GetWithdrawal(c *gin.Context) {
	withdrawal, err := h.svc.GetWithdrawal(c.Request.Context(), resolveClientID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

// CompleteWithdrawal 复核通过并打款
func (h *AccountHandler) CompleteWithdrawal(c *gin.Context) {
	var req application.ReviewWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	withdrawal, err := h.svc.CompleteWithdrawal(c.Request.Context(), resolveClientID(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

// RejectWithdrawal 复核拒绝
func (h *AccountHandler) RejectWithdrawal(c *gin.Context) {
	var req application.ReviewWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	withdrawal, err := h.svc.RejectWithdrawal(c.Request.Context(), resolveClientID(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

// CancelWithdrawal 客户撤回提现
func (h *AccountHandler) CancelWithdrawal(c *gin.Context) {
	withdrawal, err := h.svc.CancelWithdrawal(c.Request.Context(), resolveClientID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

// Dashboard 客户资金总览
func (h *AccountHandler) Dashboard(c *gin.Context) {
	dash, err := h.svc.Dashboard(c.Request.Context(), resolveClientID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, dash)
}
