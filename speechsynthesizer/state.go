// Package speechsynthesizer implements the SpeechSynthesizer
// capability agent: it consumes Speak directives, arbitrates for
// foreground audio focus, drives a media player through its
// lifecycle, and publishes playback state as context and events.
//
// Grounded on the AVS device SDK's
// CapabilityAgents::SpeechSynthesizer::SpeechSynthesizer.
package speechsynthesizer

// State is the synthesizer's playback state.
type State int

const (
	// StateFinished means no speech is currently sounding.
	StateFinished State = iota
	// StatePlaying means the media player is actively producing audio
	// for the current directive.
	StatePlaying
)

// String returns the wire representation used in published context
// (playerActivity) and matches AVS's PlayerActivity values.
func (s State) String() string {
	switch s {
	case StatePlaying:
		return "PLAYING"
	default:
		return "FINISHED"
	}
}

// Observer receives playback state transitions.
type Observer interface {
	OnStateChanged(state State)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(State)

// OnStateChanged implements Observer.
func (f ObserverFunc) OnStateChanged(state State) { f(state) }
