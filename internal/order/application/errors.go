package application

// Error 带错误码的业务错误，接口层据此映射 HTTP 状态
type Error struct {
	Code    string
	Message string
}

// Error 实现 error 接口
func (e *Error) Error() string {
	return e.Message
}

// NewError 创建新的错误
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// 错误定义
var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = NewError("ORDER_NOT_FOUND", "order not found")
	// ErrEngineBusy 指令队列已满，本次请求未改变任何订单状态
	ErrEngineBusy = NewError("ENGINE_BUSY", "command queue is full, retry later")
)
