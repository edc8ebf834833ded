package kyc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wyfcoding/ordermanagement/internal/onboarding/domain"
)

// VendorProvider 通过 HTTP 对接外部身份核验服务。
// 服务契约：POST {base}/applicants 返回
// {"applicant_id","access_token","redirect_url"}，核验结果由回调推送。
type VendorProvider struct {
	name    string
	baseURL string
	client  *http.Client
}

// NewVendorProvider 创建外部核验服务客户端
func NewVendorProvider(name, baseURL string) *VendorProvider {
	return &VendorProvider{
		name:    name,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CreateApplicant 在核验方创建申请人并取得核验会话
func (p *VendorProvider) CreateApplicant(ctx context.Context, clientID string) (*domain.KYCSession, error) {
	payload := struct {
		ClientID string `json:"client_id"`
	}{ClientID: clientID}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/applicants", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("创建核验会话失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("创建核验会话失败: vendor returned status %d", resp.StatusCode)
	}

	var reply struct {
		ApplicantID string `json:"applicant_id"`
		AccessToken string `json:"access_token"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("创建核验会话失败: %w", err)
	}
	if reply.ApplicantID == "" {
		return nil, fmt.Errorf("核验方未返回会话标识")
	}

	return &domain.KYCSession{
		Provider:    p.name,
		SessionID:   reply.ApplicantID,
		AccessToken: reply.AccessToken,
		RedirectURL: reply.RedirectURL,
	}, nil
}

// ProcessWebhook 解析核验方回调，兼容平铺与嵌套 review 两种载荷格式
func (p *VendorProvider) ProcessWebhook(payload []byte) (*domain.KYCResult, error) {
	var body struct {
		ApplicantID    string `json:"applicantId"`
		ApplicantIDAlt string `json:"applicant_id"`
		ReviewStatus   string `json:"reviewStatus"`
		Reason         string `json:"reason"`
		Review         struct {
			ReviewStatus      string `json:"reviewStatus"`
			ModerationComment string `json:"moderationComment"`
		} `json:"review"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWebhook, err)
	}

	sessionID := body.ApplicantID
	if sessionID == "" {
		sessionID = body.ApplicantIDAlt
	}
	status := body.ReviewStatus
	if status == "" {
		status = body.Review.ReviewStatus
	}
	reason := body.Review.ModerationComment
	if reason == "" {
		reason = body.Reason
	}

	return &domain.KYCResult{
		SessionID: sessionID,
		Status:    mapReviewStatus(status),
		Reason:    reason,
	}, nil
}
