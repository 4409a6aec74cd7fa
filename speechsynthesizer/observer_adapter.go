package speechsynthesizer

import "github.com/aurora-voice/avs-core/focus"

// observerAdapter is a separate value from Agent that forwards
// focus.ChannelObserver callbacks into the agent, letting the
// FocusManager hold this adapter instead of the Agent itself.
//
// The Agent holds the FocusManager, and the FocusManager holds
// whatever observer it was given: registering the Agent directly
// would make that a cycle in spirit even though Go's GC does not
// care. The adapter documents and enforces the one-directional
// relationship the AVS SDK expresses with a disabled-deleter
// shared_ptr: it points at the Agent but never extends its lifetime
// or participates in cleanup ordering.
type observerAdapter struct {
	agent *Agent
}

// OnFocusChanged implements focus.ChannelObserver.
func (a *observerAdapter) OnFocusChanged(newFocus focus.FocusState) {
	a.agent.onFocusChanged(newFocus)
}
