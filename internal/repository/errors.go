package repository

import "errors"

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("repository: not found")
	// ErrSlotTaken 同一充电桩同一天同一时段已有未取消的预约
	ErrSlotTaken = errors.New("repository: slot already held")
	// ErrDuplicate 唯一键冲突（邮箱、幂等键等）
	ErrDuplicate = errors.New("repository: duplicate")
)
