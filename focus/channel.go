package focus

// FocusState describes whether a Channel's observer should be
// producing audio and at what prominence.
type FocusState int

const (
	// FocusNone means the channel has no focus; its observer, if any,
	// should stop producing audio.
	FocusNone FocusState = iota
	// FocusBackground means the channel is active but not foreground;
	// its observer should not produce audio a user would notice.
	FocusBackground
	// FocusForeground means the channel is the single active channel
	// entitled to produce audio.
	FocusForeground
)

// String implements fmt.Stringer.
func (f FocusState) String() string {
	switch f {
	case FocusNone:
		return "NONE"
	case FocusBackground:
		return "BACKGROUND"
	case FocusForeground:
		return "FOREGROUND"
	default:
		return "UNKNOWN"
	}
}

// ChannelObserver receives focus-change notifications for a channel it
// has acquired. Implementations must return promptly: the Manager
// serializes all notifications on a single executor and a slow
// observer blocks every subsequent focus change.
type ChannelObserver interface {
	OnFocusChanged(newFocus FocusState)
}

// ChannelObserverFunc adapts a function to a ChannelObserver.
type ChannelObserverFunc func(FocusState)

// OnFocusChanged implements ChannelObserver.
func (f ChannelObserverFunc) OnFocusChanged(newFocus FocusState) { f(newFocus) }

// Channel is a named, priority-ranked arbitration slot. Lower Priority
// values mean higher priority; 0 is the highest priority possible.
//
// A Channel's zero value is not ready for use; construct one only
// through Manager's registry.
type Channel struct {
	name     string
	priority int

	focusState FocusState
	observer   ChannelObserver
	activityID string
}

// Name returns the channel's identifier.
func (c *Channel) Name() string { return c.name }

// Priority returns the channel's priority (lower is higher priority).
func (c *Channel) Priority() int { return c.priority }

// FocusState returns the channel's current focus state.
//
// Not safe to call concurrently with Manager mutations; callers
// outside the package should rely on ChannelObserver notifications
// instead of polling this method.
func (c *Channel) FocusState() FocusState { return c.focusState }

// isActive reports whether the channel currently has an observer.
func (c *Channel) isActive() bool { return c.observer != nil }
