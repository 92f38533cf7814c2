package scaling

import (
	"context"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestTickSignalAccumulates(t *testing.T) {
	s := NewTickSignal()
	s.Release()
	s.Release()
	assert.Equal(t, 2, s.Pending())

	assert.NoError(t, s.Acquire(context.Background()))
	assert.NoError(t, s.Acquire(context.Background()))
	assert.Equal(t, 0, s.Pending())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, s.Acquire(ctx))
}

func TestTickSignalWakesWaiter(t *testing.T) {
	s := NewTickSignal()
	done := make(chan error, 1)
	go func() {
		done <- s.Acquire(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	s.Release()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		assert.FailNow(t, "等待信号超时")
	}
}
