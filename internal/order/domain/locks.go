package domain

import "sync"

// LockRegistry 订单粒度互斥锁。执行引擎 worker 与创建/amend/取消路径
// 对同一订单的 读取-修改-保存 都必须在该锁内完成。
// 条目只增不删：删除会让等待方和新请求方各自持有不同的锁实例。
type LockRegistry struct {
	locks sync.Map
}

// NewLockRegistry 创建锁注册表
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{}
}

// Lock 锁定指定订单，返回解锁函数
func (r *LockRegistry) Lock(orderID string) func() {
	v, _ := r.locks.LoadOrStore(orderID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
