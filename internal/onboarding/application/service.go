// 生成摘要：开户应用服务。提交申请后发起 KYC 核验，核验通过即批准开户，失败即拒绝。
// 假设：核验结论由核验方回调推送，本服务不做人工复核。
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wyfcoding/ordermanagement/internal/onboarding/domain"
	"github.com/wyfcoding/ordermanagement/pkg/metrics"
)

// OnboardingService 开户应用服务
type OnboardingService struct {
	repo     domain.OnboardingRepository
	provider domain.KYCProvider
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewOnboardingService 创建开户应用服务
func NewOnboardingService(repo domain.OnboardingRepository, provider domain.KYCProvider, logger *slog.Logger, m *metrics.Metrics) *OnboardingService {
	return &OnboardingService{
		repo:     repo,
		provider: provider,
		logger:   logger.With("module", "onboarding_service"),
		metrics:  m,
	}
}

// SubmitApplication 提交开户申请
func (s *OnboardingService) SubmitApplication(ctx context.Context, req SubmitApplicationRequest) (*ApplicationResponse, error) {
	app, err := domain.NewOnboardingApplication(req.ClientID, req.FirstName, req.LastName, req.Email, req.IDNumber, req.Address)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, app); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ApplicationsTotal.Inc()
	}
	s.logger.InfoContext(ctx, "开户申请已提交", "application_id", app.ApplicationID, "client_id", app.ClientID)
	return NewApplicationResponse(app), nil
}

// GetApplication 查询开户申请
func (s *OnboardingService) GetApplication(ctx context.Context, applicationID string) (*ApplicationResponse, error) {
	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return NewApplicationResponse(app), nil
}

// ListByEmail 按申请人邮箱查询
func (s *OnboardingService) ListByEmail(ctx context.Context, email string) ([]*ApplicationResponse, error) {
	apps, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	out := make([]*ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, NewApplicationResponse(app))
	}
	return out, nil
}

// UploadDocument 登记开户材料，申请随之进入处理中
func (s *OnboardingService) UploadDocument(ctx context.Context, applicationID string, req UploadDocumentRequest) (*ApplicationResponse, error) {
	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := app.BeginVerification(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, app); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "开户材料已接收", "application_id", app.ApplicationID, "doc_type", req.DocType)
	return NewApplicationResponse(app), nil
}

// StartKYC 为申请发起身份核验
func (s *OnboardingService) StartKYC(ctx context.Context, applicationID string) (*KYCSessionResponse, error) {
	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	// 幂等：已有未完结的核验会话时直接复用，不再申请新令牌
	if app.SessionID != "" && (app.KYCStatus == domain.KYCPending || app.KYCStatus == domain.KYCVerifying) {
		return &KYCSessionResponse{Provider: app.Provider, SessionID: app.SessionID}, nil
	}
	if app.IsTerminal() {
		return nil, fmt.Errorf("%w: status %s", domain.ErrInvalidTransition, app.Status)
	}

	session, err := s.provider.CreateApplicant(ctx, app.ClientID)
	if err != nil {
		return nil, fmt.Errorf("发起核验失败: %w", err)
	}
	if err := app.StartKYC(session.Provider, session.SessionID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, app); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "核验会话已创建",
		"application_id", app.ApplicationID, "provider", session.Provider, "session_id", session.SessionID)
	return NewKYCSessionResponse(session), nil
}

// ProcessWebhook 处理核验方回调。
// 找不到会话或申请已终态时返回 ignored，避免核验方无意义重试。
func (s *OnboardingService) ProcessWebhook(ctx context.Context, payload []byte) (*WebhookResponse, error) {
	result, err := s.provider.ProcessWebhook(payload)
	if err != nil {
		return nil, err
	}
	if result.SessionID == "" {
		s.logger.WarnContext(ctx, "核验回调缺少会话标识")
		return ignoredWebhook("missing session id"), nil
	}

	app, err := s.repo.GetBySession(ctx, result.SessionID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		s.logger.WarnContext(ctx, "核验回调找不到对应申请", "session_id", result.SessionID)
		return ignoredWebhook("unknown session"), nil
	}
	if app.IsTerminal() {
		return ignoredWebhook("application finalized"), nil
	}

	switch result.Status {
	case domain.KYCPassed:
		err = app.PassKYC()
	case domain.KYCFailed:
		err = app.FailKYC(result.Reason)
	default:
		err = app.BeginVerification()
	}
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, app); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "核验回调已处理",
		"application_id", app.ApplicationID, "kyc_status", app.KYCStatus, "status", app.Status)
	return &WebhookResponse{Status: "processed"}, nil
}

// KYCStatus 客户最近一次核验状态，没有任何申请时返回 NONE
func (s *OnboardingService) KYCStatus(ctx context.Context, clientID string) (*KYCStatusResponse, error) {
	app, err := s.repo.LatestByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return &KYCStatusResponse{Status: string(domain.KYCNone)}, nil
	}

	resp := &KYCStatusResponse{Status: string(app.KYCStatus)}
	appID := app.ApplicationID
	resp.ApplicationID = &appID
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
	updated := app.UpdatedAt.Format(time.RFC3339)
	resp.UpdatedAt = &updated
	return resp, nil
}

func (s *OnboardingService) getApplication(ctx context.Context, applicationID string) (*domain.OnboardingApplication, error) {
	app, err := s.repo.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrApplicationNotFound, applicationID)
	}
	return app, nil
}
