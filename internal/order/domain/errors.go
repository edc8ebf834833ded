package domain

import "errors"

var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("order not found")
	// ErrNotEditable 当前状态不允许 amend
	ErrNotEditable = errors.New("order not editable")
	// ErrQtyBelowFilled amend 数量低于已成交数量
	ErrQtyBelowFilled = errors.New("quantity below filled quantity")
	// ErrInvalidFill 非法成交量
	ErrInvalidFill = errors.New("invalid fill")
	// ErrQueueFull 执行网关指令队列已满
	ErrQueueFull = errors.New("command queue full")
)
