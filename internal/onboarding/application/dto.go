package application

import (
	"time"

	"github.com/wyfcoding/ordermanagement/internal/onboarding/domain"
)

// SubmitApplicationRequest 开户申请提交
type SubmitApplicationRequest struct {
	ClientID  string `json:"clientId"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required"`
	IDNumber  string `json:"idNumber" binding:"required"`
	Address   string `json:"address"`
}

// UploadDocumentRequest 开户材料提交。文件本体走对象存储，这里只登记元信息。
type UploadDocumentRequest struct {
	DocType string `json:"docType" binding:"required"`
	FileURL string `json:"fileUrl"`
}

// ApplicationResponse 开户申请响应。证件号不回传。
type ApplicationResponse struct {
	ID         string  `json:"id"`
	ClientID   string  `json:"clientId"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Email      string  `json:"email"`
	Status     string  `json:"status"`
	KYCStatus  string  `json:"kycStatus"`
	Provider   *string `json:"provider"`
	SessionID  *string `json:"sessionId"`
	Reason     *string `json:"reason"`
	VerifiedAt *string `json:"verifiedAt"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  string  `json:"updatedAt"`
}

// NewApplicationResponse 由开户申请聚合生成响应
func NewApplicationResponse(app *domain.OnboardingApplication) *ApplicationResponse {
	resp := &ApplicationResponse{
		ID:        app.ApplicationID,
		ClientID:  app.ClientID,
		FirstName: app.FirstName,
		LastName:  app.LastName,
		Email:     app.Email,
		Status:    string(app.Status),
		KYCStatus: string(app.KYCStatus),
		CreatedAt: app.CreatedAt.Format(time.RFC3339),
		UpdatedAt: app.UpdatedAt.Format(time.RFC3339),
	}
	if app.Provider != "" {
		provider := app.Provider
		resp.Provider = &provider
	}
	if app.SessionID != "" {
		session := app.SessionID
		resp.SessionID = &session
	}
	if app.Reason != "" {
		reason := app.Reason
		resp.Reason = &reason
	}
	if app.VerifiedAt != nil {
		at := app.VerifiedAt.Format(time.RFC3339)
		resp.VerifiedAt = &at
	}
	return resp
}

// KYCSessionResponse 核验会话响应
type KYCSessionResponse struct {
	Provider    string  `json:"provider"`
	SessionID   string  `json:"sessionId"`
	AccessToken *string `json:"accessToken"`
	RedirectURL *string `json:"redirectUrl"`
}

// NewKYCSessionResponse 由核验会话生成响应
func NewKYCSessionResponse(session *domain.KYCSession) *KYCSessionResponse {
	resp := &KYCSessionResponse{
		Provider:  session.Provider,
		SessionID: session.SessionID,
	}
	if session.AccessToken != "" {
		token := session.AccessToken
		resp.AccessToken = &token
	}
	if session.RedirectURL != "" {
		u := session.RedirectURL
		resp.RedirectURL = &u
	}
	return resp
}

// KYCStatusResponse 客户最近一次核验状态
type KYCStatusResponse struct {
	Status        string  `json:"status"`
	ApplicationID *string `json:"applicationId"`
	Provider      *string `json:"provider"`
	SessionID     *string `json:"sessionId"`
	Reason        *string `json:"reason"`
	VerifiedAt    *string `json:"verifiedAt"`
	UpdatedAt     *string `json:"updatedAt"`
}

// WebhookResponse 核验回调处理结果
type WebhookResponse struct {
	Status string  `json:"status"`
	Reason *string `json:"reason"`
}

func ignoredWebhook(reason string) *WebhookResponse {
	return &WebhookResponse{Status: "ignored", Reason: &reason}
}
