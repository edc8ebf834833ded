package domain

// ExecutionGateway 执行网关入口，下游是串行消费指令的模拟交易所。
// 队列已满时返回 ErrQueueFull，调用方据此做过载处理。
type ExecutionGateway interface {
	// EnqueueSend 投递发送指令
	EnqueueSend(orderID string) error
	// EnqueueCancel 投递取消指令
	EnqueueCancel(orderID string) error
}
