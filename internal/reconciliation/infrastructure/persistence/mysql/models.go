package mysql

import (
	"time"

	"gorm.io/gorm"
)

// RunModel 对账运行数据库模型
type RunModel struct {
	gorm.Model
	RunID            string       `gorm:"column:run_id;type:varchar(32);uniqueIndex;not null"`
	Status           int8         `gorm:"column:status;type:tinyint;not null;default:0;index"`
	CheckedOrders    int          `gorm:"column:checked_orders;not null;default:0"`
	CheckedPositions int          `gorm:"column:checked_positions;not null;default:0"`
	IssueCount       int          `gorm:"column:issue_count;not null;default:0"`
	Error            string       `gorm:"column:error;type:varchar(512);not null;default:''"`
	StartedAt        time.Time    `gorm:"column:started_at;type:datetime(3);not null"`
	FinishedAt       time.Time    `gorm:"column:finished_at;type:datetime(3);not null"`
	Issues           []IssueModel `gorm:"foreignKey:RunID;references:RunID"`
}

func (RunModel) TableName() string {
	return "reconciliation_runs"
}

// IssueModel 对账差异数据库模型
type IssueModel struct {
	gorm.Model
	RunID  string `gorm:"column:run_id;type:varchar(32);index;not null"`
	Kind   string `gorm:"column:kind;type:varchar(16);not null"`
	RefID  string `gorm:"column:ref_id;type:varchar(64);not null"`
	Reason string `gorm:"column:reason;type:varchar(64);not null"`
	Detail string `gorm:"column:detail;type:varchar(255);not null;default:''"`
}

func (IssueModel) TableName() string {
	return "reconciliation_issues"
}
