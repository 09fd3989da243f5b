// Package search turns raw per-keystroke input into a committed search term.
package search

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"pokerunboard/logger"
)

// DefaultDelay is the quiet period before raw input is committed
const DefaultDelay = 500 * time.Millisecond

// CommitFunc receives the committed term; "" means no filter
type CommitFunc func(term string)

// Timer is the part of *time.Timer the debouncer needs
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d, like time.AfterFunc
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer holds raw input apart from the committed term. Every Input
// cancels the live timer and schedules a fresh one under the same lock, so
// at most one timer is ever pending. Commits reach onCommit one at a time
// and in the order they were made; onCommit must not call Flush.
type Debouncer struct {
	// held from commit through onCommit; taken before mu
	deliver sync.Mutex

	mu        sync.Mutex
	delay     time.Duration
	afterFunc AfterFunc
	onCommit  CommitFunc

	raw       string
	committed string
	timer     Timer
	gen       uint64
	stopped   bool
}

// NewDebouncer creates a debouncer; delay <= 0 selects DefaultDelay
func NewDebouncer(delay time.Duration, onCommit CommitFunc) *Debouncer {
	return newDebouncer(delay, onCommit, realAfterFunc)
}

func newDebouncer(delay time.Duration, onCommit CommitFunc, af AfterFunc) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{
		delay:     delay,
		afterFunc: af,
		onCommit:  onCommit,
	}
}

// Input records a keystroke and restarts the quiet period
func (d *Debouncer) Input(raw string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.raw = raw
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.afterFunc(d.delay, func() { d.fire(gen) })
}

// fire commits if gen still names the latest scheduled timer. A timer that
// was stopped too late to prevent its callback lands here with a stale gen.
func (d *Debouncer) fire(gen uint64) {
	d.deliver.Lock()
	defer d.deliver.Unlock()

	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	term := d.commitLocked()
	d.mu.Unlock()

	d.notify(term)
}

// Flush commits the current raw input now, cancelling the pending timer
func (d *Debouncer) Flush() {
	d.deliver.Lock()
	defer d.deliver.Unlock()

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	term := d.commitLocked()
	d.mu.Unlock()

	d.notify(term)
}

// Stop cancels any pending commit; later input is ignored
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Raw returns the latest keystroke value
func (d *Debouncer) Raw() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.raw
}

// Committed returns the last committed term
func (d *Debouncer) Committed() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.committed
}

// Pending reports whether a commit is scheduled
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) commitLocked() string {
	d.committed = strings.TrimSpace(d.raw)
	return d.committed
}

func (d *Debouncer) notify(term string) {
	logger.Debug("Search term committed", zap.String("term", term))
	if d.onCommit != nil {
		d.onCommit(term)
	}
}
