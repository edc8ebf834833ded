// Package kyc 身份核验端口的两种实现：演示环境的 mock 与外部核验服务 vendor。
package kyc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wyfcoding/pkg/idgen"

	"github.com/wyfcoding/ordermanagement/internal/onboarding/domain"
)

// mapReviewStatus 将核验方的审核状态归一化为本系统的 KYC 状态
func mapReviewStatus(status string) domain.KYCStatus {
	switch status {
	case "completed":
		return domain.KYCPassed
	case "rejected", "finalRejected":
		return domain.KYCFailed
	case "expired":
		// 会话过期视为核验失败，客户可重新发起
		return domain.KYCFailed
	default:
		// pending、queued、onHold 等中间态
		return domain.KYCVerifying
	}
}

// MockProvider 演示环境的核验实现，会话即建即用，结果由回调接口驱动
type MockProvider struct{}

// NewMockProvider 创建 mock 核验方
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// CreateApplicant 生成一个确定前缀的核验会话
func (p *MockProvider) CreateApplicant(_ context.Context, clientID string) (*domain.KYCSession, error) {
	sessionID := fmt.Sprintf("mock_%d", idgen.GenID())
	return &domain.KYCSession{
		Provider:    "mock",
		SessionID:   sessionID,
		AccessToken: "mock_token_" + sessionID,
		RedirectURL: fmt.Sprintf("https://kyc.example.com/session/%s?client=%s", sessionID, clientID),
	}, nil
}

// ProcessWebhook 解析平铺格式的回调载荷
func (p *MockProvider) ProcessWebhook(payload []byte) (*domain.KYCResult, error) {
	var body struct {
		ApplicantID    string `json:"applicantId"`
		ApplicantIDAlt string `json:"applicant_id"`
		ReviewStatus   string `json:"reviewStatus"`
		Reason         string `json:"reason"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWebhook, err)
	}

	sessionID := body.ApplicantID
	if sessionID == "" {
		sessionID = body.ApplicantIDAlt
	}

	return &domain.KYCResult{
		SessionID: sessionID,
		Status:    mapReviewStatus(body.ReviewStatus),
		Reason:    body.Reason,
	}, nil
}
