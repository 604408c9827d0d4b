package notify

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/prospector/internal/observability/metrics"
	"github.com/wolfman30/prospector/pkg/logging"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// fire runs the i-th timer's callback unless it was stopped.
func (s *fakeScheduler) fire(i int) {
	s.mu.Lock()
	t := s.timers[i]
	s.mu.Unlock()
	if t.stopped || t.fired {
		return
	}
	t.fired = true
	t.f()
}

func newTestChannel(opts ...Option) (*Channel, *fakeScheduler) {
	sched := &fakeScheduler{}
	n := 0
	base := []Option{
		WithScheduler(sched),
		WithLogger(logging.Discard()),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("n-%d", n)
		}),
	}
	return NewChannel(append(base, opts...)...), sched
}

func TestChannelEmitDefaults(t *testing.T) {
	c, sched := newTestChannel()

	id := c.Emit(KindInfo, "Lead imported", 0)
	assert.Equal(t, "n-1", id)
	require.Len(t, sched.timers, 1)
	assert.Equal(t, 5000*time.Millisecond, sched.timers[0].d)

	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, KindInfo, active[0].Kind)
	assert.Equal(t, "Lead imported", active[0].Message)
	assert.Equal(t, DefaultDuration, active[0].Duration)
}

func TestChannelCustomDuration(t *testing.T) {
	c, sched := newTestChannel(WithDefaultDuration(2 * time.Second))
	c.Success("saved")
	c.Emit(KindWarning, "slow", 750*time.Millisecond)

	assert.Equal(t, 2*time.Second, sched.timers[0].d)
	assert.Equal(t, 750*time.Millisecond, sched.timers[1].d)
}

func TestChannelExpiry(t *testing.T) {
	c, sched := newTestChannel()
	first := c.Success("one")
	second := c.Error("two")
	third := c.Warning("three")

	sched.fire(1)
	ids := []string{}
	for _, n := range c.Active() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{first, third}, ids)
	assert.False(t, c.Dismiss(second), "expired notification is gone")
}

func TestChannelDismissCancelsTimer(t *testing.T) {
	c, sched := newTestChannel()
	id := c.Info("hello")

	assert.True(t, c.Dismiss(id))
	assert.True(t, sched.timers[0].stopped)
	assert.Empty(t, c.Active())

	sched.fire(0)
	assert.Empty(t, c.Active())
	assert.False(t, c.Dismiss(id))
}

func TestChannelNoDeduplication(t *testing.T) {
	c, _ := newTestChannel()
	for i := 0; i < 20; i++ {
		c.Error("Storage full")
	}
	assert.Len(t, c.Active(), 20)
}

func TestChannelActiveIsSnapshot(t *testing.T) {
	c, _ := newTestChannel()
	c.Info("a")
	snapshot := c.Active()
	snapshot[0].Message = "changed"
	assert.Equal(t, "a", c.Active()[0].Message)
}

func TestChannelClose(t *testing.T) {
	c, sched := newTestChannel()
	c.Info("a")
	c.Info("b")
	c.Close()

	assert.Empty(t, c.Active())
	for _, timer := range sched.timers {
		assert.True(t, timer.stopped)
	}
}

func TestChannelSynchronousScheduler(t *testing.T) {
	c := NewChannel(WithScheduler(immediateScheduler{}), WithLogger(logging.Discard()))
	c.Info("gone at once")
	assert.Empty(t, c.Active())
}

type immediateScheduler struct{}

func (immediateScheduler) AfterFunc(_ time.Duration, f func()) Timer {
	f()
	return &fakeTimer{fired: true}
}

func TestChannelRuntimeTimers(t *testing.T) {
	c := NewChannel(WithLogger(logging.Discard()))
	c.Emit(KindInfo, "short", 10*time.Millisecond)
	keep := c.Emit(KindInfo, "long", time.Hour)
	t.Cleanup(c.Close)

	assert.Eventually(t, func() bool { return len(c.Active()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, keep, c.Active()[0].ID)
}

func TestChannelMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, _ := newTestChannel(WithMetrics(metrics.NewStoreMetrics(reg)))
	c.Success("a")
	c.Success("b")
	c.Error("c")

	series, err := testutil.GatherAndCount(reg, "prospector_notify_emitted_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}
