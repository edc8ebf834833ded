// 生成摘要：对账运行档案的 MySQL 仓储实现。
package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/ordermanagement/internal/reconciliation/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/logging"
)

// RunMySQLRepository 运行档案 MySQL 仓储实现
type RunMySQLRepository struct {
	db *gorm.DB
}

// NewRunRepository 创建运行档案仓储
func NewRunRepository(db *gorm.DB) domain.RunRepository {
	_ = db.AutoMigrate(&RunModel{}, &IssueModel{})
	return &RunMySQLRepository{db: db}
}

func (r *RunMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		if gormTx, ok := tx.(*gorm.DB); ok {
			return gormTx
		}
	}
	return r.db.WithContext(ctx)
}

// SaveRun 归档一次运行。运行行按 run_id 幂等落库，
// 差异行只插入尚未持久化的部分。
func (r *RunMySQLRepository) SaveRun(ctx context.Context, run *domain.Run) error {
	model := r.toModel(run)
	err := r.getDB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "run_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "checked_orders", "checked_positions", "issue_count",
			"error", "finished_at", "updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		logging.Error(ctx, "归档对账运行失败", "run_id", run.RunID, "error", err)
		return fmt.Errorf("归档对账运行失败: %w", err)
	}
	if run.ID == 0 {
		run.ID = model.ID
	}

	pending := make([]IssueModel, 0, len(run.Issues))
	for i := range run.Issues {
		if run.Issues[i].ID == 0 {
			pending = append(pending, r.toIssueModel(&run.Issues[i]))
		}
	}
	if len(pending) > 0 {
		if err := r.getDB(ctx).Create(&pending).Error; err != nil {
			logging.Error(ctx, "归档对账差异失败", "run_id", run.RunID, "error", err)
			return fmt.Errorf("归档对账差异失败: %w", err)
		}
		idx := 0
		for i := range run.Issues {
			if run.Issues[i].ID == 0 {
				run.Issues[i].ID = pending[idx].ID
				idx++
			}
		}
	}
	return nil
}

// GetRun 按运行号获取，含差异明细，未命中返回 (nil, nil)
func (r *RunMySQLRepository) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	var model RunModel
	err := r.getDB(ctx).Preload("Issues").Where("run_id = ?", runID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询对账运行失败: %w", err)
	}
	return r.toDomain(&model), nil
}

// ListRuns 按开始时间倒序列出最近的运行，不带差异明细
func (r *RunMySQLRepository) ListRuns(ctx context.Context, limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var models []RunModel
	err := r.getDB(ctx).Order("started_at DESC, id DESC").Limit(limit).Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("查询对账运行列表失败: %w", err)
	}
	runs := make([]*domain.Run, 0, len(models))
	for i := range models {
		runs = append(runs, r.toDomain(&models[i]))
	}
	return runs, nil
}

func (r *RunMySQLRepository) toModel(run *domain.Run) *RunModel {
	model := &RunModel{
		RunID:            run.RunID,
		Status:           int8(run.Status),
		CheckedOrders:    run.CheckedOrders,
		CheckedPositions: run.CheckedPositions,
		IssueCount:       run.IssueCount,
		Error:            run.Error,
		StartedAt:        run.StartedAt,
		FinishedAt:       run.FinishedAt,
	}
	model.ID = run.ID
	return model
}

func (r *RunMySQLRepository) toIssueModel(issue *domain.Issue) IssueModel {
	return IssueModel{
		RunID:  issue.RunID,
		Kind:   string(issue.Kind),
		RefID:  issue.RefID,
		Reason: issue.Reason,
		Detail: issue.Detail,
	}
}

func (r *RunMySQLRepository) toDomain(model *RunModel) *domain.Run {
	run := &domain.Run{
		ID:               model.ID,
		RunID:            model.RunID,
		Status:           domain.RunStatus(model.Status),
		CheckedOrders:    model.CheckedOrders,
		CheckedPositions: model.CheckedPositions,
		IssueCount:       model.IssueCount,
		Error:            model.Error,
		StartedAt:        model.StartedAt,
		FinishedAt:       model.FinishedAt,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
	for i := range model.Issues {
		im := &model.Issues[i]
		run.Issues = append(run.Issues, domain.Issue{
			ID:        im.ID,
			RunID:     im.RunID,
			Kind:      domain.IssueKind(im.Kind),
			RefID:     im.RefID,
			Reason:    im.Reason,
			Detail:    im.Detail,
			CreatedAt: im.CreatedAt,
		})
	}
	return run
}
