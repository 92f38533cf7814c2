package scaling

import (
	"context"
	"sync"
)

// TickSignal 计数信号。Release从不阻塞，未被消费的信号会累积
type TickSignal struct {
	mu      sync.Mutex
	permits int
	wake    chan struct{}
}

func NewTickSignal() *TickSignal {
	return &TickSignal{wake: make(chan struct{}, 1)}
}

func (t *TickSignal) Release() {
	t.mu.Lock()
	t.permits++
	t.mu.Unlock()

	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Acquire 消费一个信号，没有信号时阻塞直到有信号或ctx结束
func (t *TickSignal) Acquire(ctx context.Context) error {
	for {
		t.mu.Lock()
		if t.permits > 0 {
			t.permits--
			t.mu.Unlock()
			return nil
		}
		t.mu.Unlock()

		select {
		case <-t.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (t *TickSignal) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.permits
}
