package watch

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	defer goleak.VerifyNone(t)

	var fired int32
	d := newDebouncer(30*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, time.Second, 10*time.Millisecond)

	// Quiet period elapsed; no further fires should arrive.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestDebouncerStopPreventsFire(t *testing.T) {
	defer goleak.VerifyNone(t)

	var fired int32
	d := newDebouncer(50*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})

	d.Trigger()
	d.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestDebouncerDefaultDelay(t *testing.T) {
	d := newDebouncer(0, func() {})
	defer d.Stop()

	assert.Equal(t, 500*time.Millisecond, d.delay)
}

func TestDebouncerTriggerAfterStopIsNoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	var fired int32
	d := newDebouncer(10*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})
	d.Stop()
	d.Trigger()

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}
