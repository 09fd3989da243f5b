package search

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock hands out timers that only fire when the test says so
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, delay: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// live returns the timers that are neither stopped nor fired
func (c *fakeClock) live() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// elapse fires every live timer, as if the quiet period passed
func (c *fakeClock) elapse() {
	for _, t := range c.live() {
		c.mu.Lock()
		t.fired = true
		c.mu.Unlock()
		t.f()
	}
}

type recorder struct {
	mu      sync.Mutex
	commits []string
}

func (r *recorder) commit(term string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, term)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commits...)
}

func newFakeDebouncer() (*Debouncer, *fakeClock, *recorder) {
	clock := &fakeClock{}
	rec := &recorder{}
	return newDebouncer(DefaultDelay, rec.commit, clock.AfterFunc), clock, rec
}

func TestNewDebouncerDefaultsDelay(t *testing.T) {
	d := NewDebouncer(0, nil)
	assert.Equal(t, 500*time.Millisecond, d.delay)
}

func TestKeystrokesBeforeQuietPeriodCommitOnlyFinalValue(t *testing.T) {
	d, clock, rec := newFakeDebouncer()

	for _, raw := range []string{"p", "pi", "pik", "pika"} {
		d.Input(raw)
		require.Len(t, clock.live(), 1, "exactly one live timer per input")
	}
	assert.Empty(t, rec.all())
	assert.Equal(t, "pika", d.Raw())
	assert.Equal(t, "", d.Committed())

	clock.elapse()

	assert.Equal(t, []string{"pika"}, rec.all())
	assert.Equal(t, "pika", d.Committed())
	assert.False(t, d.Pending())
}

func TestTypedThenDeletedCommitsEmpty(t *testing.T) {
	d, clock, rec := newFakeDebouncer()

	d.Input("ash")
	clock.elapse()
	d.Input("as")
	d.Input("a")
	d.Input("")
	clock.elapse()

	assert.Equal(t, []string{"ash", ""}, rec.all())
	assert.Equal(t, "", d.Committed())
}

func TestWhitespaceOnlyCommitsEmpty(t *testing.T) {
	d, clock, rec := newFakeDebouncer()

	d.Input("   ")
	clock.elapse()

	assert.Equal(t, []string{""}, rec.all())
}

func TestStaleTimerCallbackIsIgnored(t *testing.T) {
	d, clock, rec := newFakeDebouncer()

	d.Input("mis")
	first := clock.live()[0]
	d.Input("misty")

	// The first timer lost the race with Stop and runs anyway.
	first.f()
	assert.Empty(t, rec.all())

	clock.elapse()
	assert.Equal(t, []string{"misty"}, rec.all())
}

func TestFlushCommitsImmediately(t *testing.T) {
	d, clock, rec := newFakeDebouncer()

	d.Input("brock ")
	d.Flush()
	assert.Equal(t, []string{"brock"}, rec.all())
	assert.Empty(t, clock.live())

	clock.elapse()
	assert.Equal(t, []string{"brock"}, rec.all())
}

func TestStopPreventsCommits(t *testing.T) {
	d, clock, rec := newFakeDebouncer()

	d.Input("gary")
	d.Stop()
	clock.elapse()
	d.Input("oak")
	d.Flush()
	clock.elapse()

	assert.Empty(t, rec.all())
	assert.Empty(t, clock.live())
}

func TestRealTimerCommitsAfterQuietPeriod(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(30*time.Millisecond, rec.commit)
	defer d.Stop()

	d.Input("c")
	d.Input("ch")
	d.Input("char")

	assert.Eventually(t, func() bool {
		return len(rec.all()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"char"}, rec.all())
}

func TestCommitsAreDeliveredInOrder(t *testing.T) {
	clock := &fakeClock{}
	entered := make(chan string, 2)
	release := make(chan struct{})
	rec := &recorder{}

	d := newDebouncer(DefaultDelay, func(term string) {
		entered <- term
		if term == "pik" {
			<-release
		}
		rec.commit(term)
	}, clock.AfterFunc)

	d.Input("pik")
	timers := clock.live()
	require.Len(t, timers, 1)

	// the quiet period ends and delivery of "pik" stalls inside onCommit
	go clock.elapse()
	require.Equal(t, "pik", <-entered)

	flushed := make(chan struct{})
	go func() {
		d.Input("pika")
		d.Flush()
		close(flushed)
	}()

	// the newer commit waits for the older one to be delivered
	assert.Never(t, func() bool {
		select {
		case <-flushed:
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond)
	assert.Empty(t, rec.all())

	close(release)
	<-flushed

	assert.Equal(t, []string{"pik", "pika"}, rec.all())
	assert.Equal(t, "pika", d.Committed())
}
