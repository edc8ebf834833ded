package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/ordermanagement/internal/reconciliation/application"
	"github.com/wyfcoding/ordermanagement/internal/reconciliation/domain"
)

// ReconciliationHandler 处理对账相关的 HTTP 请求
type ReconciliationHandler struct {
	svc *application.ReconciliationService
}

// NewReconciliationHandler 创建 HTTP 处理器
func NewReconciliationHandler(svc *application.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *ReconciliationHandler) RegisterRoutes(api *gin.RouterGroup) {
	recon := api.Group("/reconciliation")
	recon.POST("/run", h.Run)
	recon.GET("/runs", h.ListRuns)
	recon.GET("/runs/:id", h.GetRun)
}

// Run 同步执行一次全量对账并返回报告
func (h *ReconciliationHandler) Run(c *gin.Context) {
	report, err := h.svc.Reconcile(c.Request.Context())
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to run reconciliation", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, report)
}

// ListRuns 列出最近的运行档案
func (h *ReconciliationHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.svc.ListRuns(c.Request.Context(), limit)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list reconciliation runs", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, runs)
}

// GetRun 查询单次运行档案
func (h *ReconciliationHandler) GetRun(c *gin.Context) {
	run, err := h.svc.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to get reconciliation run", "run_id", c.Param("id"), "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, run)
}
