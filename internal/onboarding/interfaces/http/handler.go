// Package http 开户上下文的 HTTP 接口：申请、材料、KYC 会话与回调。
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/ordermanagement/internal/onboarding/application"
	"github.com/wyfcoding/ordermanagement/internal/onboarding/domain"
)

const fallbackClientID = "demo-client-1"

// OnboardingHandler 处理开户相关的 HTTP 请求
type OnboardingHandler struct {
	svc *application.OnboardingService
}

// NewOnboardingHandler 创建 HTTP 处理器
func NewOnboardingHandler(svc *application.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *OnboardingHandler) RegisterRoutes(api *gin.RouterGroup) {
	applications := api.Group("/applications")
	applications.POST("", h.SubmitApplication)
	applications.GET("", h.ListApplications)
	applications.GET("/:id", h.GetApplication)
	applications.POST("/:id/documents", h.UploadDocument)
	applications.POST("/:id/kyc", h.StartKYC)

	kyc := api.Group("/kyc")
	kyc.GET("/status", h.KYCStatus)
	kyc.POST("/webhook", h.Webhook)
}

func resolveClientID(c *gin.Context) string {
	if clientID := c.Query("clientId"); clientID != "" {
		return clientID
	}
	if clientID := c.GetHeader("X-Client-Id"); clientID != "" {
		return clientID
	}
	return fallbackClientID
}

func (h *OnboardingHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrApplicationNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrMissingField), errors.Is(err, domain.ErrInvalidWebhook):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, domain.ErrInvalidTransition):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "Onboarding request failed", "path", c.FullPath(), "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}

// SubmitApplication 提交开户申请
func (h *OnboardingHandler) SubmitApplication(c *gin.Context) {
	var req application.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if req.ClientID == "" {
		req.ClientID = resolveClientID(c)
	}

	app, err := h.svc.SubmitApplication(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, app)
}

// ListApplications 按邮箱查询申请
func (h *OnboardingHandler) ListApplications(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "email is required", "")
		return
	}

	apps, err := h.svc.ListByEmail(c.Request.Context(), email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, apps)
}

// GetApplication 查询开户申请
func (h *OnboardingHandler) GetApplication(c *gin.Context) {
	app, err := h.svc.GetApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, app)
}

// UploadDocument 登记开户材料
func (h *OnboardingHandler) UploadDocument(c *gin.Context) {
	var req application.UploadDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	app, err := h.svc.UploadDocument(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, app)
}

// StartKYC 发起身份核验
func (h *OnboardingHandler) StartKYC(c *gin.Context) {
	session, err := h.svc.StartKYC(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, session)
}

// KYCStatus 客户最近一次核验状态
func (h *OnboardingHandler) KYCStatus(c *gin.Context) {
	status, err := h.svc.KYCStatus(c.Request.Context(), resolveClientID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, status)
}

// Webhook 核验方回调入口，载荷格式由具体核验方决定
func (h *OnboardingHandler) Webhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	ack, err := h.svc.ProcessWebhook(c.Request.Context(), payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, ack)
}
