// 生成摘要：开户申请的 MySQL 仓储实现。
package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/wyfcoding/ordermanagement/internal/onboarding/domain"
	"github.com/wyfcoding/pkg/logging"
)

// OnboardingMySQLRepository 开户申请 MySQL 仓储实现
type OnboardingMySQLRepository struct {
	db *gorm.DB
}

// NewOnboardingRepository 创建开户申请仓储
func NewOnboardingRepository(db *gorm.DB) domain.OnboardingRepository {
	_ = db.AutoMigrate(&ApplicationModel{})
	return &OnboardingMySQLRepository{db: db}
}

// Save 保存或更新申请，主键为零时新建并回填
func (r *OnboardingMySQLRepository) Save(ctx context.Context, app *domain.OnboardingApplication) error {
	model := r.toModel(app)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		logging.Error(ctx, "保存开户申请失败", "application_id", app.ApplicationID, "error", err)
		return fmt.Errorf("保存开户申请失败: %w", err)
	}
	if app.ID == 0 {
		app.ID = model.ID
	}
	return nil
}

// Get 按申请号查询，未命中返回 (nil, nil)
func (r *OnboardingMySQLRepository) Get(ctx context.Context, applicationID string) (*domain.OnboardingApplication, error) {
	var model ApplicationModel
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询开户申请失败: %w", err)
	}
	return r.toDomain(&model), nil
}

// GetBySession 按核验会话查询，未命中返回 (nil, nil)
func (r *OnboardingMySQLRepository) GetBySession(ctx context.Context, sessionID string) (*domain.OnboardingApplication, error) {
	if sessionID == "" {
		return nil, nil
	}
	var model ApplicationModel
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询开户申请失败: %w", err)
	}
	return r.toDomain(&model), nil
}

// LatestByClient 客户最近一笔申请，未命中返回 (nil, nil)
func (r *OnboardingMySQLRepository) LatestByClient(ctx context.Context, clientID string) (*domain.OnboardingApplication, error) {
	var model ApplicationModel
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC, id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询开户申请失败: %w", err)
	}
	return r.toDomain(&model), nil
}

// ListByEmail 按申请人邮箱查询
func (r *OnboardingMySQLRepository) ListByEmail(ctx context.Context, email string) ([]*domain.OnboardingApplication, error) {
	var models []ApplicationModel
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("查询开户申请列表失败: %w", err)
	}
	apps := make([]*domain.OnboardingApplication, 0, len(models))
	for i := range models {
		apps = append(apps, r.toDomain(&models[i]))
	}
	return apps, nil
}

func (r *OnboardingMySQLRepository) toModel(app *domain.OnboardingApplication) *ApplicationModel {
	model := &ApplicationModel{
		ApplicationID: app.ApplicationID,
		ClientID:      app.ClientID,
		FirstName:     app.FirstName,
		LastName:      app.LastName,
		Email:         app.Email,
		IDNumber:      app.IDNumber,
		Address:       app.Address,
		Status:        string(app.Status),
		KYCStatus:     string(app.KYCStatus),
		Provider:      app.Provider,
		SessionID:     app.SessionID,
		Reason:        app.Reason,
		VerifiedAt:    app.VerifiedAt,
	}
	model.ID = app.ID
	return model
}

func (r *OnboardingMySQLRepository) toDomain(model *ApplicationModel) *domain.OnboardingApplication {
	return &domain.OnboardingApplication{
		ID:            model.ID,
		ApplicationID: model.ApplicationID,
		ClientID:      model.ClientID,
		FirstName:     model.FirstName,
		LastName:      model.LastName,
		Email:         model.Email,
		IDNumber:      model.IDNumber,
		Address:       model.Address,
		Status:        domain.ApplicationStatus(model.Status),
		KYCStatus:     domain.KYCStatus(model.KYCStatus),
		Provider:      model.Provider,
		SessionID:     model.SessionID,
		Reason:        model.Reason,
		VerifiedAt:    model.VerifiedAt,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}
