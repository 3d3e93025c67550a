package event

import (
	"sync"

	"github.com/openannot/contract"
	"github.com/openannot/meta"
)

// Buffer 收集一笔交易内产生的事件，交易提交后才交给真正的订阅方，
// 交易失败时直接丢弃
type Buffer struct {
	txHash string
	clock  contract.Clock
	events []meta.Event
}

func NewBuffer(txHash string, clock contract.Clock) *Buffer {
	return &Buffer{txHash: txHash, clock: clock}
}

func (b *Buffer) Publish(e meta.Event) {
	e.TxHash = b.txHash
	if b.clock != nil {
		e.Timestamp = b.clock.Now()
	}
	b.events = append(b.events, e)
}

func (b *Buffer) Events() []meta.Event {
	return b.events
}

// Flush 把缓存的事件发送给 sink
func (b *Buffer) Flush(sink contract.Events) {
	if sink == nil {
		return
	}
	for _, e := range b.events {
		sink.Publish(e)
	}
}

// Multi 把事件同时发送给多个订阅方
type Multi []contract.Events

func (m Multi) Publish(e meta.Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(e)
		}
	}
}

// Log 保存最近的合约事件，并推送给在线的订阅者（websocket）
type Log struct {
	mu     sync.Mutex
	limit  int
	events []meta.Event
	subs   map[int]chan meta.Event
	nextID int
}

func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = 1000
	}
	return &Log{limit: limit, subs: map[int]chan meta.Event{}}
}

func (l *Log) Publish(e meta.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	if len(l.events) > l.limit {
		l.events = l.events[len(l.events)-l.limit:]
	}
	for _, ch := range l.subs {
		select {
		case ch <- e:
		default: // 订阅者处理不过来时丢弃
		}
	}
}

// Recent 返回某个项目的历史事件，projectID 为 nil 时返回全部
func (l *Log) Recent(projectID *uint32) []meta.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []meta.Event
	for _, e := range l.events {
		if projectID == nil || e.ProjectID == *projectID {
			out = append(out, e)
		}
	}
	return out
}

// Subscribe 订阅之后的事件，调用返回的函数取消订阅
func (l *Log) Subscribe() (<-chan meta.Event, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	ch := make(chan meta.Event, 20)
	l.subs[id] = ch
	return ch, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if c, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(c)
		}
	}
}
