package watch

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of triggers into one fire per quiet period.
// Editors commonly emit several events per save; one re-lint covers them.
type debouncer struct {
	mu      sync.Mutex
	timer   *time.Timer
	delay   time.Duration
	onFire  func()
	stopped bool
}

func newDebouncer(delay time.Duration, onFire func()) *debouncer {
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &debouncer{delay: delay, onFire: onFire}
}

// Trigger marks activity and (re)starts the quiet-period timer.
func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *debouncer) fire() {
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()
	if !stopped && d.onFire != nil {
		d.onFire()
	}
}

// Stop cancels any pending fire. Idempotent.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
