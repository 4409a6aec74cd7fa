package speechsynthesizer

import (
	"io"

	"go.uber.org/zap"

	"github.com/aurora-voice/avs-core/avsinterfaces"
	"github.com/aurora-voice/avs-core/capabilityagent"
	"github.com/aurora-voice/avs-core/focus"
)

// speakDirectiveInfo is the per-directive record the agent keeps for
// the Speak directive it is currently pre-handling, handling, or
// playing.
type speakDirectiveInfo struct {
	directive            capabilityagent.Directive
	result               capabilityagent.ResultSink
	token                string
	attachmentReader     io.ReadCloser
	sendPlaybackFinished bool
	cancelled            bool
}

// clear releases the directive's audio resources and marks it as no
// longer owing a SpeechFinished event. Safe to call more than once.
func (s *speakDirectiveInfo) clear() {
	if s.attachmentReader != nil {
		_ = s.attachmentReader.Close()
		s.attachmentReader = nil
	}
	s.sendPlaybackFinished = false
}

// executeHandleImmediately runs on the executor. It bypasses the
// preHandle/handle split for directives with no result sink: validate
// and, if valid, go straight to acquiring focus.
func (a *Agent) executeHandleImmediately(directive capabilityagent.Directive) {
	validated, err := a.validateInfo(directive, nil, false)
	if err != nil {
		a.logger.Warn("handleDirectiveImmediately validation failed", zap.Error(err))
		a.exceptionSender.SendExceptionEncountered(directive.Unparsed, avsinterfaces.ExceptionUnexpectedInformationState, err.Error())
		return
	}
	info := &speakDirectiveInfo{
		directive:            directive,
		token:                validated.token,
		attachmentReader:     validated.reader,
		sendPlaybackFinished: true,
	}
	a.executeHandleAfterValidation(info)
}

// executePreHandle runs on the executor. It validates the payload and
// stashes the parsed record keyed by message id for executeHandle to
// pick up.
func (a *Agent) executePreHandle(info *capabilityagent.DirectiveInfo) {
	validated, err := a.validateInfo(info.Directive, info.Result, true)
	if err != nil {
		a.sendExceptionEncounteredAndReportFailed(info, avsinterfaces.ExceptionUnexpectedInformationState, err.Error())
		return
	}
	a.pending[info.Directive.MessageID] = &speakDirectiveInfo{
		directive:            info.Directive,
		result:               info.Result,
		token:                validated.token,
		attachmentReader:     validated.reader,
		sendPlaybackFinished: true,
	}
}

// executeHandle runs on the executor. It promotes a pre-handled
// directive (or validates it on the spot if preHandle was skipped)
// and begins the focus-acquisition sequence.
func (a *Agent) executeHandle(info *capabilityagent.DirectiveInfo) {
	speakInfo, ok := a.pending[info.Directive.MessageID]
	if ok {
		delete(a.pending, info.Directive.MessageID)
	} else {
		validated, err := a.validateInfo(info.Directive, info.Result, true)
		if err != nil {
			a.sendExceptionEncounteredAndReportFailed(info, avsinterfaces.ExceptionUnexpectedInformationState, err.Error())
			return
		}
		speakInfo = &speakDirectiveInfo{
			directive:            info.Directive,
			result:               info.Result,
			token:                validated.token,
			attachmentReader:     validated.reader,
			sendPlaybackFinished: true,
		}
	}
	a.executeHandleAfterValidation(speakInfo)
}

func (a *Agent) executeHandleAfterValidation(info *speakDirectiveInfo) {
	a.resetCurrentInfo(info)
	if !a.focusManager.AcquireChannel(focus.DialogChannelName, a.observerAdapter, info.token) {
		a.logger.Error("failed to acquire Dialog channel", zap.String("token", info.token))
		a.setHandlingFailed("could not acquire audio focus")
	}
}

// executeCancel runs on the executor. If info names the currently
// playing directive, playback is stopped and focus released; if it
// names a directive still pending preHandle promotion, it is simply
// dropped.
func (a *Agent) executeCancel(info *capabilityagent.DirectiveInfo) {
	if a.currentInfo != nil && a.currentInfo.directive.MessageID == info.Directive.MessageID {
		a.currentInfo.cancelled = true
		if a.currentStateLocked() == StatePlaying {
			// stopPlaying's resulting OnPlaybackFinished callback is what
			// tears down currentInfo, releases focus, and reports the
			// directive Canceled instead of Completed — the same path S6
			// preemption already runs through, so SpeechFinished stays
			// paired with every Speak that reached Playing.
			a.stopPlaying()
			return
		}
		a.releaseForegroundFocus()
		cancelled := a.currentInfo
		a.resetCurrentInfo(nil)
		if cancelled.result != nil {
			cancelled.result.Canceled()
		}
		return
	}
	if pending, ok := a.pending[info.Directive.MessageID]; ok {
		pending.clear()
		delete(a.pending, info.Directive.MessageID)
		if pending.result != nil {
			pending.result.Canceled()
		}
	}
}

// executeOnDeregistered runs on the executor: it releases focus and
// abandons any in-flight or pending directive.
func (a *Agent) executeOnDeregistered() {
	a.releaseForegroundFocus()
	a.resetCurrentInfo(nil)
	for id, pending := range a.pending {
		pending.clear()
		delete(a.pending, id)
	}
}

// resetCurrentInfo clears resources held by the previous current
// directive (if any) and makes info the new current directive.
func (a *Agent) resetCurrentInfo(info *speakDirectiveInfo) {
	if a.currentInfo != nil {
		a.currentInfo.clear()
	}
	a.currentInfo = info
}

func (a *Agent) releaseForegroundFocus() {
	if a.currentFocus == focus.FocusNone {
		return
	}
	<-a.focusManager.ReleaseChannel(focus.DialogChannelName, a.observerAdapter)
	a.currentFocus = focus.FocusNone
}

func (a *Agent) setHandlingFailed(message string) {
	a.metrics.RecordSpeechFailed()
	if a.currentInfo != nil && a.currentInfo.result != nil {
		a.currentInfo.result.Failed(message)
	}
	a.releaseForegroundFocus()
	a.resetCurrentInfo(nil)
}

func (a *Agent) sendExceptionEncounteredAndReportFailed(info *capabilityagent.DirectiveInfo, errType avsinterfaces.ExceptionErrorType, message string) {
	a.exceptionSender.SendExceptionEncountered(info.Directive.Unparsed, errType, message)
	if info.Result != nil {
		info.Result.Failed(message)
	}
}
