package domain

import (
	"context"
	"errors"
)

// ErrRunNotFound 运行记录不存在
var ErrRunNotFound = errors.New("reconciliation run not found")

// RunRepository 对账运行档案仓储。GetRun 未命中返回 (nil, nil)。
type RunRepository interface {
	// 归档一次运行及其差异记录
	SaveRun(ctx context.Context, run *Run) error
	// 按运行号获取，含差异明细
	GetRun(ctx context.Context, runID string) (*Run, error)
	// 按开始时间倒序列出最近的运行
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
}
