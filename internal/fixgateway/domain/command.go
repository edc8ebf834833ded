// Package domain 定义模拟 FIX 网关的指令模型与执行参数。
// 网关不实现真实 FIX 线协议，只模拟交易所侧的时延、成交与拒单行为。
package domain

import (
	"errors"
	"time"
)

// CommandType 指令类型
type CommandType string

const (
	// CommandSend 把订单送往模拟交易所
	CommandSend CommandType = "SEND"
	// CommandCancel 在模拟交易所撤销订单
	CommandCancel CommandType = "CANCEL"
)

// Command 执行指令，只存在于队列中，不落库。
type Command struct {
	Type    CommandType
	OrderID string
}

// RejectReasonFIX 模拟交易所拒单时写入的默认拒绝原因
const RejectReasonFIX = "FIX_REJECT"

// DefaultQueueCapacity 指令队列默认容量
const DefaultQueueCapacity = 10000

// ErrEngineClosed 引擎已停止，不再接收指令
var ErrEngineClosed = errors.New("execution engine closed")

// Config 执行引擎的模拟参数。
// 时延与概率的零值都是合法取值（立即执行、从不触发），
// 只有队列容量在非正时回退到默认值。
type Config struct {
	// QueueCapacity 指令队列容量，入队满时立即失败
	QueueCapacity int
	// SendLatency 报单送达交易所的模拟时延
	SendLatency time.Duration
	// FillLatency 部分成交后补齐剩余量前的模拟时延
	FillLatency time.Duration
	// CancelLatency 撤单确认的模拟时延
	CancelLatency time.Duration
	// RejectProb 交易所拒单概率 [0,1]
	RejectProb float64
	// PartialProb 首笔只部分成交的概率 [0,1]
	PartialProb float64
	// Seed 随机种子，0 表示按时间取种
	Seed int64
}
