// 生成摘要：开户申请的仓储接口定义。
package domain

import (
	"context"
	"errors"
)

// ErrApplicationNotFound 开户申请不存在
var ErrApplicationNotFound = errors.New("application not found")

// OnboardingRepository 开户申请仓储接口
type OnboardingRepository interface {
	// Save 持久化申请，新申请回填自增主键
	Save(ctx context.Context, app *OnboardingApplication) error
	// Get 按申请号查询，未找到返回 (nil, nil)
	Get(ctx context.Context, applicationID string) (*OnboardingApplication, error)
	// GetBySession 按核验会话查询，未找到返回 (nil, nil)
	GetBySession(ctx context.Context, sessionID string) (*OnboardingApplication, error)
	// LatestByClient 客户最近一笔申请，未找到返回 (nil, nil)
	LatestByClient(ctx context.Context, clientID string) (*OnboardingApplication, error)
	// ListByEmail 按申请人邮箱查询
	ListByEmail(ctx context.Context, email string) ([]*OnboardingApplication, error)
}
