package chain

import (
	"sync"
	"time"
)

// 节点时钟（秒），系统时间回拨时保持不减
type SystemClock struct {
	mu   sync.Mutex
	last uint64
}

func (c *SystemClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := uint64(time.Now().Unix())
	if now < c.last {
		return c.last
	}
	c.last = now
	return now
}

// 单笔交易内使用同一时间
type fixedClock uint64

func (c fixedClock) Now() uint64 { return uint64(c) }
