// Package notify holds the transient, self-expiring messages shown to the user
// after an operation completes.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/prospector/internal/observability/metrics"
	"github.com/wolfman30/prospector/pkg/logging"
)

// DefaultDuration is how long a notification stays visible when no duration is given.
const DefaultDuration = 5000 * time.Millisecond

// Kind is the visual category of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Notification is one visible message.
type Notification struct {
	ID        string        `json:"id"`
	Kind      Kind          `json:"kind"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Timer is a pending expiry that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type runtimeScheduler struct{}

func (runtimeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Channel holds the active notifications. Each one removes itself when its
// duration elapses unless dismissed first. There is no deduplication and no
// upper bound on how many may be visible.
type Channel struct {
	mu              sync.Mutex
	active          []Notification
	timers          map[string]Timer
	scheduler       Scheduler
	defaultDuration time.Duration
	now             func() time.Time
	newID           func() string
	logger          *logging.Logger
	metrics         *metrics.StoreMetrics
}

// Option customizes a Channel.
type Option func(*Channel)

// WithScheduler replaces the runtime timer source.
func WithScheduler(s Scheduler) Option {
	return func(c *Channel) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithDefaultDuration overrides DefaultDuration.
func WithDefaultDuration(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.defaultDuration = d
		}
	}
}

// WithClock overrides the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Channel) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(newID func() string) Option {
	return func(c *Channel) {
		if newID != nil {
			c.newID = newID
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Channel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics counts emitted notifications by kind.
func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(c *Channel) { c.metrics = m }
}

// NewChannel creates an empty channel.
func NewChannel(opts ...Option) *Channel {
	c := &Channel{
		timers:          make(map[string]Timer),
		scheduler:       runtimeScheduler{},
		defaultDuration: DefaultDuration,
		now:             func() time.Time { return time.Now().UTC() },
		newID:           func() string { return uuid.New().String() },
		logger:          logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Emit shows message and returns its id. A non-positive duration uses the
// channel default.
func (c *Channel) Emit(kind Kind, message string, duration time.Duration) string {
	if duration <= 0 {
		duration = c.defaultDuration
	}

	c.mu.Lock()
	n := Notification{
		ID:        c.newID(),
		Kind:      kind,
		Message:   message,
		Duration:  duration,
		CreatedAt: c.now(),
	}
	c.active = append(c.active, n)
	c.mu.Unlock()

	// AfterFunc may run f synchronously, so it is called without the lock held.
	timer := c.scheduler.AfterFunc(duration, func() { c.expire(n.ID) })

	c.mu.Lock()
	if c.indexOf(n.ID) >= 0 {
		c.timers[n.ID] = timer
	}
	c.mu.Unlock()

	c.metrics.ObserveNotification(string(kind))
	c.logger.Debug("notification emitted", "id", n.ID, "kind", kind, "duration", duration)
	return n.ID
}

// Success emits a success notification with the default duration.
func (c *Channel) Success(message string) string { return c.Emit(KindSuccess, message, 0) }

// Error emits an error notification with the default duration.
func (c *Channel) Error(message string) string { return c.Emit(KindError, message, 0) }

// Warning emits a warning notification with the default duration.
func (c *Channel) Warning(message string) string { return c.Emit(KindWarning, message, 0) }

// Info emits an info notification with the default duration.
func (c *Channel) Info(message string) string { return c.Emit(KindInfo, message, 0) }

// Dismiss removes the notification and cancels its expiry. It reports whether
// the notification was still visible.
func (c *Channel) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timer, ok := c.timers[id]; ok {
		timer.Stop()
		delete(c.timers, id)
	}
	return c.remove(id)
}

// Active returns the visible notifications in emission order.
func (c *Channel) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, len(c.active))
	copy(out, c.active)
	return out
}

// Close cancels every pending expiry and clears the channel.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
	c.active = nil
}

func (c *Channel) expire(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.timers, id)
	if c.remove(id) {
		c.logger.Debug("notification expired", "id", id)
	}
}

func (c *Channel) remove(id string) bool {
	idx := c.indexOf(id)
	if idx < 0 {
		return false
	}
	c.active = append(c.active[:idx:idx], c.active[idx+1:]...)
	return true
}

func (c *Channel) indexOf(id string) int {
	for i := range c.active {
		if c.active[i].ID == id {
			return i
		}
	}
	return -1
}
