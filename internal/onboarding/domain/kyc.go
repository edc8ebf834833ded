package domain

import (
	"context"
	"errors"
)

// ErrInvalidWebhook 核验方回调载荷无法解析
var ErrInvalidWebhook = errors.New("invalid kyc webhook payload")

// KYCSession 核验方创建的核验会话
type KYCSession struct {
	Provider    string
	SessionID   string
	AccessToken string
	RedirectURL string
}

// KYCResult 核验方回调经归一化后的结果
type KYCResult struct {
	SessionID string
	Status    KYCStatus
	Reason    string
}

// KYCProvider 身份核验端口。
// 具体实现由配置选择：mock 用于演示环境，vendor 对接外部核验服务。
type KYCProvider interface {
	// CreateApplicant 为客户创建核验会话
	CreateApplicant(ctx context.Context, clientID string) (*KYCSession, error)
	// ProcessWebhook 解析核验方回调并归一化为统一结果
	ProcessWebhook(payload []byte) (*KYCResult, error)
}
