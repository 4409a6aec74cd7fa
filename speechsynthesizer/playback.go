package speechsynthesizer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aurora-voice/avs-core/avsinterfaces"
	"github.com/aurora-voice/avs-core/focus"
)

// onFocusChanged is invoked directly by the FocusManager's own
// executor goroutine (through observerAdapter), not posted onto this
// Agent's executor: it sets the desired state under the mutex, posts
// the actual play/stop work, and then blocks the *caller* until
// playback confirms the transition or the timeout elapses. Blocking
// the FocusManager's thread here — rather than this Agent's own
// executor — is what lets the state-change task run concurrently
// with the wait.
func (a *Agent) onFocusChanged(newFocus focus.FocusState) {
	a.mu.Lock()
	switch newFocus {
	case focus.FocusForeground:
		a.desiredState = StatePlaying
	case focus.FocusBackground, focus.FocusNone:
		a.desiredState = StateFinished
	}
	a.mu.Unlock()

	_ = a.executor.Submit(context.Background(), func() {
		a.currentFocus = newFocus
		a.executeStateChange()
	})

	a.waitForStateChange()
}

// waitForStateChange blocks until currentState catches up with
// desiredState or the agent's stateChangeTimeout elapses. A timeout is not
// an error: subsequent playback callbacks may still arrive and
// reconcile the state later.
func (a *Agent) waitForStateChange() {
	ctx, cancel := context.WithTimeout(context.Background(), a.stateChangeTimeout)
	defer cancel()

	for {
		a.mu.Lock()
		matched := a.currentState == a.desiredState
		waitCh := a.stateChanged
		a.mu.Unlock()

		if matched {
			return
		}

		select {
		case <-waitCh:
			continue
		case <-ctx.Done():
			a.logger.Debug("state-change wait timed out")
			return
		}
	}
}

// executeStateChange runs on the executor. It compares current and
// desired state and issues the play/stop call needed to reconcile
// them, per the transition table: Foreground drives Playing, anything
// else drives Finished.
func (a *Agent) executeStateChange() {
	a.mu.Lock()
	desired := a.desiredState
	current := a.currentState
	a.mu.Unlock()

	switch {
	case desired == StatePlaying && current != StatePlaying:
		a.startPlaying()
	case desired == StateFinished && current == StatePlaying:
		a.stopPlaying()
	}
}

func (a *Agent) currentStateLocked() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentState
}

// setCurrentState updates currentState and wakes every waiter
// blocked in waitForStateChange. Callers must not hold a.mu; it
// acquires the lock itself.
func (a *Agent) setCurrentState(newState State) {
	a.mu.Lock()
	a.currentState = newState
	close(a.stateChanged)
	a.stateChanged = make(chan struct{})
	a.mu.Unlock()

	a.notifyObservers(newState)
}

func (a *Agent) notifyObservers(state State) {
	for o := range a.observers {
		o.OnStateChanged(state)
	}
}

func (a *Agent) startPlaying() {
	if a.currentInfo == nil {
		a.logger.Warn("startPlaying called with no current directive")
		return
	}
	sourceID, status := a.player.SetSource(a.currentInfo.attachmentReader)
	a.sourceID = sourceID
	if status == avsinterfaces.PlayerStatusFailure {
		a.executePlaybackError(sourceID, "media player failed to set source")
		return
	}
	// PlayerStatusPending means the player accepted the call and will
	// report the outcome asynchronously through the observer callbacks;
	// only PlayerStatusFailure here is a synchronous error.
	if status := a.player.Play(sourceID); status == avsinterfaces.PlayerStatusFailure {
		a.executePlaybackError(sourceID, "media player failed to start playback")
	}
}

func (a *Agent) stopPlaying() {
	if a.currentInfo == nil {
		return
	}
	a.player.Stop(a.sourceID)
}

// OnPlaybackStarted implements avsinterfaces.MediaPlayerObserver.
func (a *Agent) OnPlaybackStarted(sourceID uint64) {
	_ = a.executor.Submit(context.Background(), func() {
		a.executePlaybackStarted(sourceID)
	})
}

// OnPlaybackFinished implements avsinterfaces.MediaPlayerObserver.
func (a *Agent) OnPlaybackFinished(sourceID uint64) {
	_ = a.executor.Submit(context.Background(), func() {
		a.executePlaybackFinished(sourceID)
	})
}

// OnPlaybackError implements avsinterfaces.MediaPlayerObserver.
func (a *Agent) OnPlaybackError(sourceID uint64, message string) {
	_ = a.executor.Submit(context.Background(), func() {
		a.executePlaybackError(sourceID, message)
	})
}

func (a *Agent) executePlaybackStarted(sourceID uint64) {
	if sourceID != a.sourceID {
		a.logger.Debug("ignoring stale playback-started callback", zap.Uint64("sourceID", sourceID))
		return
	}
	a.speakStartedAt = time.Now()
	a.setCurrentState(StatePlaying)
	a.metrics.RecordSpeechStarted()

	token := ""
	if a.currentInfo != nil {
		token = a.currentInfo.token
	}
	a.updateContextAndEmit(StatePlaying, token, "SpeechStarted")
}

func (a *Agent) executePlaybackFinished(sourceID uint64) {
	if sourceID != a.sourceID {
		a.logger.Debug("ignoring stale playback-finished callback", zap.Uint64("sourceID", sourceID))
		return
	}
	a.setCurrentState(StateFinished)
	if !a.speakStartedAt.IsZero() {
		a.metrics.RecordSpeechFinished(time.Since(a.speakStartedAt))
	}

	info := a.currentInfo
	token := ""
	if info != nil {
		token = info.token
	}
	a.updateContextAndEmit(StateFinished, token, "")
	if info != nil && info.sendPlaybackFinished {
		a.emitEvent("SpeechFinished", token)
	}

	a.releaseForegroundFocus()

	if info != nil && info.result != nil {
		if info.cancelled {
			info.result.Canceled()
		} else {
			info.result.Completed()
		}
	}
	a.resetCurrentInfo(nil)
}

func (a *Agent) executePlaybackError(sourceID uint64, message string) {
	if a.sourceID != 0 && sourceID != a.sourceID {
		a.logger.Debug("ignoring stale playback-error callback", zap.Uint64("sourceID", sourceID))
		return
	}
	a.setCurrentState(StateFinished)
	a.setHandlingFailed(message)
}
