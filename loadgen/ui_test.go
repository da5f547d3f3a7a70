package loadgen

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard_close(t *testing.T) {
	var drawing, draws int32

	d := &dashboard{
		interval: time.Millisecond,
		exited:   make(chan struct{}),
		draw: func() {
			atomic.StoreInt32(&drawing, 1)
			atomic.AddInt32(&draws, 1)
			time.Sleep(20 * time.Millisecond)
			atomic.StoreInt32(&drawing, 0)
		},
	}

	closedWhileDrawing := int32(-1)
	d.closeUI = func() {
		closedWhileDrawing = atomic.LoadInt32(&drawing)
	}

	stopped := make(chan struct{})

	go d.loop(stopped)

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&drawing) == 1
	}, time.Second, time.Millisecond)

	close(stopped)
	d.close()

	assert.Equal(t, int32(0), closedWhileDrawing)
	assert.Positive(t, atomic.LoadInt32(&draws))
}
