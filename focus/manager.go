// Package focus implements the audio focus arbitration core: a fixed,
// priority-ordered set of named channels, at most one of which may
// hold Foreground focus at any instant, with asynchronous, in-order
// notification of focus changes to the observer currently registered
// on each channel.
//
// Grounded on the AVS device SDK's AFML::FocusManager: the same
// acquire/release/stopForegroundActivity operations, the same
// helper split, and the same lock-then-unlock-then-notify discipline.
package focus

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/aurora-voice/avs-core/internal/executor"
)

var tracer = otel.Tracer("avs-core/focus")

// Default channel names and priorities, used when Manager is
// constructed with no explicit configuration.
const (
	DialogChannelName  = "Dialog"
	AlertsChannelName  = "Alerts"
	ContentChannelName = "Content"

	DialogChannelPriority  = 100
	AlertsChannelPriority  = 200
	ContentChannelPriority = 300
)

// ChannelConfiguration names a Channel and assigns it a priority.
type ChannelConfiguration struct {
	Name     string
	Priority int
}

// DefaultChannelConfigurations returns the standard Dialog/Alerts/Content
// registry.
func DefaultChannelConfigurations() []ChannelConfiguration {
	return []ChannelConfiguration{
		{Name: DialogChannelName, Priority: DialogChannelPriority},
		{Name: AlertsChannelName, Priority: AlertsChannelPriority},
		{Name: ContentChannelName, Priority: ContentChannelPriority},
	}
}

// MetricsRecorder receives arbitration events for observability.
// Implementations must not block or call back into the Manager.
type MetricsRecorder interface {
	RecordAcquire(channel string)
	RecordPreempt(channel string)
	RecordRelease(channel string)
}

type noopMetrics struct{}

func (noopMetrics) RecordAcquire(string) {}
func (noopMetrics) RecordPreempt(string) {}
func (noopMetrics) RecordRelease(string) {}

// Config configures a Manager.
type Config struct {
	// Channels is the fixed registry. Defaults to
	// DefaultChannelConfigurations if nil.
	Channels []ChannelConfiguration

	Logger  *zap.Logger
	Metrics MetricsRecorder

	// ExecutorQueueSize bounds pending arbitration tasks. Defaults to 32.
	ExecutorQueueSize int
}

// Manager arbitrates access to its fixed set of channels.
type Manager struct {
	channels map[string]*Channel
	active   map[string]*Channel

	mu       sync.Mutex
	executor *executor.Sequential
	logger   *zap.Logger
	metrics  MetricsRecorder
}

// NewManager constructs a Manager from cfg. Duplicate channel names or
// priorities in cfg.Channels are resolved by keeping the first
// occurrence and silently discarding later ones.
func NewManager(cfg Config) *Manager {
	configs := cfg.Channels
	if configs == nil {
		configs = DefaultChannelConfigurations()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metricsRecorder := cfg.Metrics
	if metricsRecorder == nil {
		metricsRecorder = noopMetrics{}
	}
	queueSize := cfg.ExecutorQueueSize
	if queueSize <= 0 {
		queueSize = 32
	}

	m := &Manager{
		channels: make(map[string]*Channel),
		active:   make(map[string]*Channel),
		executor: executor.New(executor.Config{QueueSize: queueSize}),
		logger:   logger,
		metrics:  metricsRecorder,
	}

	seenNames := make(map[string]bool, len(configs))
	seenPriorities := make(map[int]bool, len(configs))
	for _, c := range configs {
		if seenNames[c.Name] || seenPriorities[c.Priority] {
			logger.Warn("discarding duplicate channel configuration",
				zap.String("name", c.Name), zap.Int("priority", c.Priority))
			continue
		}
		seenNames[c.Name] = true
		seenPriorities[c.Priority] = true
		m.channels[c.Name] = &Channel{name: c.Name, priority: c.Priority, focusState: FocusNone}
	}

	return m
}

// AcquireChannel asynchronously grants focus on the named channel to
// observer. It returns false synchronously if name is unknown;
// otherwise it returns true immediately and the actual arbitration
// (including any resulting notifications) runs on the Manager's
// executor.
func (m *Manager) AcquireChannel(name string, observer ChannelObserver, activityID string) bool {
	m.mu.Lock()
	ch, ok := m.channels[name]
	m.mu.Unlock()
	if !ok {
		m.logger.Debug("acquire on unknown channel", zap.String("channel", name))
		return false
	}

	_, span := tracer.Start(context.Background(), "focus.AcquireChannel",
		trace.WithAttributes(
			attribute.String("channel", name),
			attribute.String("activity_id", activityID),
		))
	_ = m.executor.Submit(context.Background(), func() {
		defer span.End()
		m.acquireChannelHelper(ch, observer, activityID)
	})
	return true
}

// ReleaseChannel asynchronously releases name if and only if observer
// is still its current observer. The returned channel receives exactly
// one value: true if the release was performed, false otherwise
// (including when name is unknown, which resolves immediately).
func (m *Manager) ReleaseChannel(name string, observer ChannelObserver) <-chan bool {
	result := make(chan bool, 1)

	m.mu.Lock()
	ch, ok := m.channels[name]
	m.mu.Unlock()
	if !ok {
		result <- false
		close(result)
		return result
	}

	_ = m.executor.Submit(context.Background(), func() {
		m.releaseChannelHelper(ch, observer, result)
	})
	return result
}

// StopForegroundActivity asynchronously releases the current
// foreground channel, provided its activity id at the moment of
// scheduling still matches when the executor runs the request. This
// guards against stopping an activity that has already been replaced.
func (m *Manager) StopForegroundActivity() {
	m.mu.Lock()
	fg := m.highestForegroundLocked()
	var activityID string
	if fg != nil {
		activityID = fg.activityID
	}
	m.mu.Unlock()

	if fg == nil {
		return
	}

	_ = m.executor.Submit(context.Background(), func() {
		m.stopForegroundActivityHelper(fg, activityID)
	})
}

// Close releases the Manager's executor. It does not release any
// acquired channel; callers should release channels first if they
// need deterministic None notifications.
func (m *Manager) Close() {
	m.executor.Close()
}

// acquireChannelHelper implements the arbitration algorithm of
// spec §4.1. It must run on m.executor.
func (m *Manager) acquireChannelHelper(ch *Channel, observer ChannelObserver, activityID string) {
	m.mu.Lock()
	var displaced ChannelObserver
	if ch.isActive() && ch.observer != observer {
		displaced = ch.observer
	}

	previousForeground := m.highestForegroundLocked()

	ch.observer = observer
	ch.activityID = activityID
	m.active[ch.name] = ch

	newForeground := m.highestPriorityActiveLocked()
	m.mu.Unlock()

	if displaced != nil {
		m.logger.Debug("channel observer displaced", zap.String("channel", ch.name))
		displaced.OnFocusChanged(FocusNone)
	}

	if previousForeground != nil && previousForeground != newForeground {
		m.mu.Lock()
		previousForeground.focusState = FocusBackground
		obs := previousForeground.observer
		m.mu.Unlock()
		m.metrics.RecordPreempt(previousForeground.name)
		if obs != nil {
			obs.OnFocusChanged(FocusBackground)
		}
	}

	// An unchanged foreground channel is renotified only when it is the
	// channel being acquired (its observer may be new or re-acquiring).
	if newForeground != nil && (newForeground != previousForeground || newForeground == ch) {
		m.mu.Lock()
		newForeground.focusState = FocusForeground
		obs := newForeground.observer
		m.mu.Unlock()
		m.metrics.RecordAcquire(newForeground.name)
		if obs != nil {
			obs.OnFocusChanged(FocusForeground)
		}
	}

	// ch itself may have just been acquired below the current
	// foreground (e.g. Content while Dialog holds Foreground); the
	// blocks above only ever touch previousForeground and
	// newForeground, so without this ch's own observer would never
	// learn it holds Background.
	if ch != newForeground {
		m.mu.Lock()
		ch.focusState = FocusBackground
		obs := ch.observer
		m.mu.Unlock()
		if obs != nil {
			obs.OnFocusChanged(FocusBackground)
		}
	}
}

// releaseChannelHelper implements the release algorithm of spec §4.1.
// It must run on m.executor.
func (m *Manager) releaseChannelHelper(ch *Channel, observer ChannelObserver, result chan<- bool) {
	m.mu.Lock()
	if ch.observer != observer {
		m.mu.Unlock()
		result <- false
		close(result)
		return
	}

	wasForeground := ch.focusState == FocusForeground
	released := ch.observer
	ch.observer = nil
	ch.activityID = ""
	ch.focusState = FocusNone
	delete(m.active, ch.name)

	var promote *Channel
	if wasForeground {
		promote = m.highestPriorityActiveLocked()
	}
	m.mu.Unlock()

	m.metrics.RecordRelease(ch.name)
	released.OnFocusChanged(FocusNone)

	if promote != nil {
		m.mu.Lock()
		promote.focusState = FocusForeground
		obs := promote.observer
		m.mu.Unlock()
		m.metrics.RecordAcquire(promote.name)
		if obs != nil {
			obs.OnFocusChanged(FocusForeground)
		}
	}

	result <- true
	close(result)
}

// stopForegroundActivityHelper implements the guarded release used by
// StopForegroundActivity. It must run on m.executor.
func (m *Manager) stopForegroundActivityHelper(ch *Channel, activityID string) {
	m.mu.Lock()
	current := ch.activityID
	observer := ch.observer
	m.mu.Unlock()

	if current != activityID || observer == nil {
		return
	}

	result := make(chan bool, 1)
	m.releaseChannelHelper(ch, observer, result)
}

// highestPriorityActiveLocked returns the highest-priority (lowest
// Priority value) channel among m.active. Callers must hold m.mu.
func (m *Manager) highestPriorityActiveLocked() *Channel {
	var best *Channel
	for _, ch := range m.active {
		if best == nil || ch.priority < best.priority {
			best = ch
		}
	}
	return best
}

// highestForegroundLocked returns the channel currently marked
// Foreground, if any. Callers must hold m.mu.
func (m *Manager) highestForegroundLocked() *Channel {
	for _, ch := range m.active {
		if ch.focusState == FocusForeground {
			return ch
		}
	}
	return nil
}
