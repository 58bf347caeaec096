package entity

import "fmt"

// 校验类错误。全部为确定性失败：同样输入必然同样拒绝，调用方据错误中的
// 标识修正输入后重试

// AssemblyCycleError 装配边会让产品（直接或间接）依赖自身
type AssemblyCycleError struct {
	ProductID string
	ChildID   string
}

func (e *AssemblyCycleError) Error() string {
	return fmt.Sprintf("assembly cycle: product %s is reachable from child %s", e.ProductID, e.ChildID)
}

// InsufficientStockError 库存不足，整笔多桶变更一并回滚
type InsufficientStockError struct {
	BucketID   string
	MaterialID string
	Current    int64
	Delta      int64
}

func (e *InsufficientStockError) Error() string {
	target := e.BucketID
	if target == "" {
		target = "material " + e.MaterialID
	}
	return fmt.Sprintf("insufficient stock on %s: current %d, delta %d", target, e.Current, e.Delta)
}

// InvalidProcessPositionError 工序序号跳号或与现有工序冲突
type InvalidProcessPositionError struct {
	ProductID string
	Order     int
	Count     int
}

func (e *InvalidProcessPositionError) Error() string {
	return fmt.Sprintf("invalid process order %d for product %s (existing %d)", e.Order, e.ProductID, e.Count)
}

// LockedRecordError 单据的扣减明细与当前BOM边不再一致，编辑被拒绝
type LockedRecordError struct {
	RecordID  string
	ProcessID string
}

func (e *LockedRecordError) Error() string {
	return fmt.Sprintf("record %s is locked: requirement edges of process %s changed since it was recorded", e.RecordID, e.ProcessID)
}

// ConflictError 删除被非零库存或未完结引用阻塞
type ConflictError struct {
	Resource string
	ID       string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s cannot be deleted: %s", e.Resource, e.ID, e.Reason)
}
